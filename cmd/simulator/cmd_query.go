package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	iotGrpc "liyu1981.xyz/solar-telemetry-service/pkg/grpc"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Exercise the read APIs",
	Long:  `Issues random installation and reading queries over HTTP and gRPC.`,
	RunE:  runQuery,
}

var (
	queryWorkers  int
	queryRequests int
	queryUseGrpc  bool
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVar(&queryWorkers, "workers", 20, "concurrent workers")
	queryCmd.Flags().IntVar(&queryRequests, "requests", 50, "requests issued by each worker")
	queryCmd.Flags().BoolVar(&queryUseGrpc, "with-grpc", false, "mix gRPC calls into the workload")
}

type queryAction struct {
	name string
	http string
	grpc string
	req  map[string]any
}

func runQuery(cmd *cobra.Command, args []string) error {
	var installations []models.Installation
	if err := getJSON(fmt.Sprintf("http://%s/api/installations", httpHostPort), &installations); err != nil {
		return fmt.Errorf("failed to list installations: %w", err)
	}
	fmt.Printf("found %v installations\n", len(installations))

	var grpcClient *iotGrpc.QueryServiceClient
	if queryUseGrpc {
		conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to connect to gRPC server: %w", err)
		}
		defer conn.Close()
		grpcClient = iotGrpc.NewQueryServiceClient(conn)
		fmt.Printf("gRPC client connected\n")
	}

	deviceIDs := lo.Map(installations, func(in models.Installation, _ int) string { return in.DeviceID })
	districtNames := lo.Uniq(lo.Map(installations, func(in models.Installation, _ int) string { return in.District }))

	var done, failed atomic.Int64
	startTime := time.Now()
	wg := sync.WaitGroup{}
	for w := 0; w < queryWorkers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			for rep := 0; rep < queryRequests; rep++ {
				action := pickAction(rnd, deviceIDs, districtNames)
				var err error
				if grpcClient != nil && rnd.Intn(2) == 0 {
					var out any
					err = grpcClient.Invoke(cmd.Context(), action.grpc, action.req, &out)
				} else {
					var out any
					err = getJSON(fmt.Sprintf("http://%s%s", httpHostPort, action.http), &out)
				}
				if err != nil {
					failed.Add(1)
					fmt.Printf("\n%s failed: %v\n", action.name, err)
				}
				fmt.Printf("\rexecuted %v queries", done.Add(1))
			}
		}()
	}
	wg.Wait()
	usedTime := time.Since(startTime)

	fmt.Printf(
		"\rexecuted %v queries: used time=%v seconds, throughput=%v query/second, failed=%v\n",
		done.Load(), usedTime.Seconds(), float64(done.Load())/usedTime.Seconds(), failed.Load(),
	)
	return nil
}

func pickAction(rnd *rand.Rand, deviceIDs, districtNames []string) queryAction {
	actions := []queryAction{
		{name: "ListInstallations", http: "/api/installations", grpc: iotGrpc.MethodListInstallations},
		{name: "LatestReadings", http: "/api/readings/latest?limit=20", grpc: iotGrpc.MethodLatestReadings, req: map[string]any{iotGrpc.FieldLimit: 20}},
		{name: "ListInstallationsByState", http: "/api/installations/state/" + models.DefaultState, grpc: iotGrpc.MethodListInstallationsByState, req: map[string]any{iotGrpc.FieldState: models.DefaultState}},
	}
	if len(deviceIDs) > 0 {
		deviceID := deviceIDs[rnd.Intn(len(deviceIDs))]
		actions = append(actions, queryAction{
			name: "DeviceReadings",
			http: "/api/readings/device/" + deviceID,
			grpc: iotGrpc.MethodDeviceReadings,
			req:  map[string]any{iotGrpc.FieldDeviceID: deviceID},
		})
	}
	if len(districtNames) > 0 {
		district := districtNames[rnd.Intn(len(districtNames))]
		actions = append(actions, queryAction{
			name: "ListInstallationsByDistrict",
			http: "/api/installations/district/" + district,
			grpc: iotGrpc.MethodListInstallationsByDistrict,
			req:  map[string]any{iotGrpc.FieldDistrict: district},
		})
	}
	return actions[rnd.Intn(len(actions))]
}

func getJSON(u string, out any) error {
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response status code != 200: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
