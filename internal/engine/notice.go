package engine

// Notify shows text over the face for the notice duration. It may be called
// from any goroutine.
func (e *Engine) Notify(text string) bool {
	return e.Post(func() { e.showNotice(text) })
}

// showNotice replaces any current notice. It runs on the loop goroutine.
func (e *Engine) showNotice(text string) {
	e.stopNoticeTimer()
	e.noticeGen++
	gen := e.noticeGen

	e.notice = Notice{Text: text, Until: e.timers.Now().Add(e.cfg.NoticeDuration)}
	e.logger.Infof("showing notice %q", text)

	e.noticeTimer = e.timers.AfterFunc(e.cfg.NoticeDuration, func() {
		e.Post(func() {
			if gen != e.noticeGen {
				return
			}
			e.notice = Notice{}
			e.noticeTimer = nil
			e.Invalidate()
		})
	})
	e.Invalidate()
}

func (e *Engine) stopNoticeTimer() {
	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
		e.noticeTimer = nil
	}
}
