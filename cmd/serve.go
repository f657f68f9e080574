package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillworks/autoedit/pkg/events"
	"github.com/quillworks/autoedit/pkg/intent"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/orchestration"
	"github.com/quillworks/autoedit/pkg/store"
	"github.com/quillworks/autoedit/pkg/utils"
)

var (
	flagAddr      string
	flagServeRoot string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose runs over HTTP with a live event stream",
	Long: `Start an HTTP server with two endpoints:

  POST /runs    {"document": "...", "instruction": "..."} starts a run and
                returns its result when it finishes.
  GET  /events  WebSocket stream of every run's progress events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8377", "listen address")
	serveCmd.Flags().StringVar(&flagServeRoot, "root", ".", "store root directory")
}

type runRequest struct {
	Document    string `json:"document"`
	Instruction string `json:"instruction"`
}

func serve() error {
	logger := utils.GetLogger(flagVerbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fileStore, err := store.NewFileStore(flagServeRoot)
	if err != nil {
		return err
	}
	o, err := buildOracle(cfg, os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return err
	}

	bus := events.NewBus()
	runner, err := orchestration.NewRunner(orchestration.Dependencies{
		Oracle: o,
		Config: cfg,
		Intent: intent.NewDetector(o, oracle.Options{Model: cfg.Model, Temperature: cfg.Temperature}, logger),
		Bus:    bus,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/events", events.NewBroadcaster(bus))
	mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
			return
		}
		if req.Document == "" || req.Instruction == "" {
			http.Error(w, "document and instruction are required", http.StatusBadRequest)
			return
		}

		doc, err := fileStore.Load(req.Document)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		result := runner.Run(r.Context(), req.Instruction, doc)
		if result.Changes > 0 {
			if err := fileStore.Save(req.Document, result.Final); err != nil {
				logger.Logf("saving %s after run %s: %v", req.Document, result.RunID, err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Logf("encoding run result: %v", err)
		}
	})

	server := &http.Server{
		Addr:              flagAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.LogProcessStep(fmt.Sprintf("listening on %s", flagAddr))
	fmt.Printf("autoedit serving on %s\n", flagAddr)
	return server.ListenAndServe()
}
