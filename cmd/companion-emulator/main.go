package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/chrissnell/weatherface/internal/companion"
	"github.com/chrissnell/weatherface/internal/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Condition codes the emulator cycles through, one per icon category.
var conditionCodes = []int{800, 801, 803, 500, 502, 601, 741, 211}

func main() {
	var (
		listen      = flag.String("listen", "127.0.0.1:7070", "Address to accept faces on")
		interval    = flag.Duration("interval", 30*time.Second, "Interval between forecasts")
		unavailable = flag.Bool("unavailable", false, "Refuse every face as if the data service were down")
		debug       = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	node := uuid.NewString()
	log.Infof("companion emulator %s listening on %s, sending forecasts every %v", node, *listen, *interval)

	listener, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Errorf("Failed to accept connection: %v", err)
			continue
		}

		log.Infof("face connected from %s", conn.RemoteAddr())
		go handleConnection(conn, node, *interval, *unavailable)
	}
}

func handleConnection(conn net.Conn, node string, interval time.Duration, unavailable bool) {
	defer conn.Close()

	dec := msgpack.NewDecoder(conn)
	dec.UseLooseInterfaceDecoding(true)
	enc := msgpack.NewEncoder(conn)

	var hello companion.Frame
	if err := dec.Decode(&hello); err != nil || hello.Type != companion.FrameHello {
		log.Errorf("expected hello from %s, got %+v (%v)", conn.RemoteAddr(), hello, err)
		return
	}
	log.Infof("hello from face %s", hello.Node)

	if unavailable {
		enc.Encode(companion.Frame{Type: companion.FrameUnavailable, Node: node})
		return
	}
	if err := enc.Encode(companion.Frame{Type: companion.FrameWelcome, Node: node}); err != nil {
		log.Errorf("Failed to send welcome: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		ev := generateForecast(time.Now(), conditionCodes[i%len(conditionCodes)])
		if err := enc.Encode(companion.Frame{Type: companion.FrameData, Node: node, Events: []companion.WireEvent{ev}}); err != nil {
			log.Errorf("Failed to send forecast to %s: %v", hello.Node, err)
			return
		}
		log.Infof("sent: icon=%v high=%v low=%v", ev.Data[companion.KeyIconID], ev.Data[companion.KeyHighTemp], ev.Data[companion.KeyLowTemp])
		<-ticker.C
	}
}

// generateForecast builds a plausible daily forecast for the season.
func generateForecast(now time.Time, code int) companion.WireEvent {
	dayOfYear := float64(now.YearDay())

	// 65°F average with ±20°F seasonal swing
	seasonal := 65.0 + 20.0*math.Sin(2*math.Pi*(dayOfYear-81)/365)
	high := seasonal + 8 + rand.Float64()*4 - 2
	low := seasonal - 8 + rand.Float64()*4 - 2

	return companion.WireEvent{
		Type: companion.Changed.String(),
		Path: companion.WeatherPath,
		Data: map[string]any{
			companion.KeyIconID:   code,
			companion.KeyHighTemp: strconv.Itoa(int(math.Round(high))),
			companion.KeyLowTemp:  strconv.Itoa(int(math.Round(low))),
		},
	}
}
