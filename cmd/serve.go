package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorinvancea/pricewatch/internal/model"
	"github.com/dorinvancea/pricewatch/internal/runner"
	"github.com/dorinvancea/pricewatch/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run history and result files over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, cfg.Output.Dir),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API over the run-history store and the result
// file directory.
func newRouter(st store.Store, outputDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.RunFilter{
			Category: req.URL.Query().Get("category"),
			Limit:    50,
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeResponse(w, http.StatusInternalServerError, map[string]string{"error": "list runs"})
			return
		}
		if runs == nil {
			runs = []model.RunSummary{}
		}
		writeResponse(w, http.StatusOK, runs)
	})

	r.Get("/api/categories", func(w http.ResponseWriter, req *http.Request) {
		categories, err := st.ListCategories(req.Context())
		if err != nil {
			zap.L().Error("list categories failed", zap.Error(err))
			writeResponse(w, http.StatusInternalServerError, map[string]string{"error": "list categories"})
			return
		}
		if categories == nil {
			categories = []string{}
		}
		writeResponse(w, http.StatusOK, categories)
	})

	r.Get("/api/categories/{label}/results", func(w http.ResponseWriter, req *http.Request) {
		label := chi.URLParam(req, "label")
		data, err := os.ReadFile(runner.ResultsPath(outputDir, label))
		if err != nil {
			if os.IsNotExist(err) {
				writeResponse(w, http.StatusNotFound, map[string]string{"error": "no results for category"})
				return
			}
			zap.L().Error("read results failed", zap.String("category", label), zap.Error(err))
			writeResponse(w, http.StatusInternalServerError, map[string]string{"error": "read results"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck
	})

	return r
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
