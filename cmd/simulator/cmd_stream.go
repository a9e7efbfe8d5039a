package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
)

var districts = []string{"Bengaluru Urban", "Mysuru", "Dharwad", "Belagavi", "Kalaburagi", "Ballari"}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream telemetry from simulated devices",
	Long:  `Opens one WebSocket per simulated device and sends arduino_data frames.`,
	RunE:  runStream,
}

var (
	streamDevices  int
	streamFrames   int
	streamInterval time.Duration
)

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().IntVar(&streamDevices, "devices", 100, "number of simulated devices")
	streamCmd.Flags().IntVar(&streamFrames, "frames", 10, "frames sent by each device")
	streamCmd.Flags().DurationVar(&streamInterval, "interval", time.Second, "delay between frames of a device")
}

func rndFloat64(rnd *rand.Rand, min, max float64, decimal int) float64 {
	val := min + rnd.Float64()*(max-min)
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func telemetryFrame(rnd *rand.Rand, deviceID, district string) map[string]any {
	irradiance := rndFloat64(rnd, 100, 1000, 1)
	voltage := rndFloat64(rnd, 11, 14.5, 2)
	current := rndFloat64(rnd, 0, 8, 2)
	return map[string]any{
		"type":              iot.FrameTypeTelemetry,
		"deviceId":          deviceID,
		"location":          "Simulated " + district,
		"district":          district,
		"power":             math.Round(voltage*current*100) / 100,
		"voltage":           voltage,
		"current":           current,
		"irradiance":        irradiance,
		"temperature":       rndFloat64(rnd, 18, 42, 1),
		"panelAngle":        rndFloat64(rnd, 10, 40, 1),
		"sunlightIntensity": math.Round(irradiance / 10),
		"latitude":          rndFloat64(rnd, 11.6, 18.4, 4),
		"longitude":         rndFloat64(rnd, 74.1, 78.5, 4),
	}
}

type streamStats struct {
	sent      atomic.Int64
	errors    atomic.Int64
	broadcast atomic.Int64
}

func runStream(cmd *cobra.Command, args []string) error {
	wsURL := url.URL{Scheme: "ws", Host: httpHostPort, Path: "/ws"}

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		return fmt.Errorf("failed to connect to HTTP server: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP server not available: %s", resp.Status)
	}
	fmt.Printf("http server verified\n")

	deviceIDs := lo.Times(streamDevices, func(int) string {
		return "SIM-" + uuid.NewString()[:8]
	})
	fmt.Printf("generated %v device IDs\n", len(deviceIDs))

	stats := &streamStats{}
	startTime := time.Now()
	wg := sync.WaitGroup{}
	for i, deviceID := range deviceIDs {
		i, deviceID := i, deviceID
		wg.Add(1)
		go func() {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
			if err := streamDevice(cmd, wsURL.String(), deviceID, districts[i%len(districts)], rnd, stats); err != nil {
				stats.errors.Add(1)
				fmt.Printf("\ndevice %s: %v\n", deviceID, err)
			}
		}()
	}
	wg.Wait()
	usedTime := time.Since(startTime)

	fmt.Printf(
		"\rsent %v frames from %v devices: used time=%v seconds, throughput=%v frame/second, errors=%v, broadcasts received=%v\n",
		stats.sent.Load(), len(deviceIDs), usedTime.Seconds(),
		float64(stats.sent.Load())/usedTime.Seconds(), stats.errors.Load(), stats.broadcast.Load(),
	)
	return nil
}

func streamDevice(cmd *cobra.Command, wsURL, deviceID, district string, rnd *rand.Rand, stats *streamStats) error {
	conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame iot.Frame
			if json.Unmarshal(data, &frame) != nil {
				continue
			}
			switch frame.Type {
			case iot.FrameTypeDataUpdate:
				stats.broadcast.Add(1)
			case iot.FrameTypeError:
				stats.errors.Add(1)
				fmt.Printf("\ndevice %s got error frame: %s %v\n", deviceID, frame.Message, frame.Details)
			}
		}
	}()

	for rep := 0; rep < streamFrames; rep++ {
		if err := conn.WriteJSON(telemetryFrame(rnd, deviceID, district)); err != nil {
			return err
		}
		stats.sent.Add(1)
		fmt.Printf("\rsent %v frames", stats.sent.Load())
		time.Sleep(streamInterval)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}
