package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calllist-cli/internal/worklist"
)

// maxUploadBytes caps workbook uploads.
const maxUploadBytes = 32 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workbook upload server",
	Long: `Serves the enrichment flow over HTTP: upload a call-list workbook,
get back the same workbook with the output column filled in.

Routes:
  POST /enrich   multipart field "workbook", optional ?limit=N
  GET  /keys     key pool status
  GET  /health   liveness`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnrich(true)
		if err != nil {
			return eris.Wrap(err, "serve: init")
		}
		defer env.Close()

		r := buildRouter(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func buildRouter(env *enrichEnv) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/keys", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"keys":      env.Pool.Size(),
			"remaining": env.Pool.Remaining(),
			"slots":     env.Pool.Snapshot(),
		})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		handleEnrich(env, w, req)
	})

	return r
}

func handleEnrich(env *enrichEnv, w http.ResponseWriter, req *http.Request) {
	if env.Pool.Size() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no api key configured"})
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	file, header, err := req.FormFile("workbook")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field \"workbook\" is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return
	}

	wb, err := worklist.OpenBinary(data, cfg.Excel)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}

	stats, err := env.newProcessor(1).Run(req.Context(), wb, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	zap.L().Info("upload processed",
		zap.String("file", header.Filename),
		zap.Int("searched", stats.Searched),
		zap.Int("found", stats.Found),
		zap.Int("skipped", stats.Skipped),
		zap.Bool("exhausted", stats.Exhausted),
	)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="processed_`+header.Filename+`"`)
	w.Header().Set("X-Searched", strconv.Itoa(stats.Searched))
	w.Header().Set("X-Found", strconv.Itoa(stats.Found))
	w.Header().Set("X-Skipped", strconv.Itoa(stats.Skipped))
	w.Header().Set("X-Exhausted", strconv.FormatBool(stats.Exhausted))
	if err := wb.Write(w); err != nil {
		zap.L().Error("write workbook response", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
