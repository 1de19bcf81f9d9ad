package simulator

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// historyLimit is how many rows the history endpoints return.
const historyLimit = 10

const timestampLayout = "2006-01-02 15:04:05"

// Handler serves the sensor API from a State.
type Handler struct {
	state *State
	log   *slog.Logger
}

// NewHandler creates an API handler over state.
func NewHandler(state *State, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{state: state, log: logger}
}

// RegisterRoutes adds the sensor API routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/latest", h.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/api/led", h.handleLED).Methods(http.MethodPost)
	r.HandleFunc("/api/log_led2", h.handleLogLED2).Methods(http.MethodPost)
	r.HandleFunc("/api/history_sensors", h.handleSensorHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/history_led", h.handleLEDHistory).Methods(http.MethodGet)
}

// NewRouter returns the full API with CORS for any origin and access
// logging to accessLog.
func NewRouter(h *Handler, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(accessLog, cors(r))
}

type latestResponse struct {
	Temperature int    `json:"temperature"`
	Humidity    int    `json:"humidity"`
	Lux         int    `json:"lux"`
	LED1        string `json:"led1"`
	LED2        string `json:"led2"`
	Timestamp   string `json:"timestamp"`
}

type ledRequest struct {
	LED1 *string `json:"led1"`
	LED2 *string `json:"led2"`
}

type ledResponse struct {
	Success bool   `json:"success"`
	LED1    string `json:"led1"`
	LED2    string `json:"led2"`
}

type logRequest struct {
	LED2 string `json:"led2"`
}

type sensorRow struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Lux         float64 `json:"lux"`
	Timestamp   string  `json:"timestamp"`
}

type ledRow struct {
	LED1      string `json:"led1"`
	LED2      string `json:"led2"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("handleLatest")

	rec, ok := h.state.Latest()
	if !ok {
		respondWithJSON(w, http.StatusOK, map[string]string{"error": "No data found"})
		return
	}

	respondWithJSON(w, http.StatusOK, latestResponse{
		Temperature: int(math.Round(rec.Temperature)),
		Humidity:    int(math.Round(rec.Humidity)),
		Lux:         int(math.Round(rec.Lux)),
		LED1:        rec.LEDs.LED1,
		LED2:        rec.LEDs.LED2,
		Timestamp:   rec.Time.Format(timestampLayout),
	})
}

func (h *Handler) handleLED(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("handleLED")

	var req ledRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid body for led update", err)
		return
	}

	led := h.state.SetLEDs(req.LED1, req.LED2)
	h.log.Info("led state updated", "led1", led.LED1, "led2", led.LED2)

	respondWithJSON(w, http.StatusOK, ledResponse{Success: true, LED1: led.LED1, LED2: led.LED2})
}

func (h *Handler) handleLogLED2(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("handleLogLED2")

	var req logRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid body for led2 log", err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.LED2))
	if status != statusOn && status != statusOff {
		h.respondWithError(w, http.StatusBadRequest, "led2 must be ON or OFF", nil)
		return
	}

	t := h.state.LogTransition(status)
	h.log.Info("led2 transition", "led2", t.LED2)

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	recs := h.state.SensorHistory(historyLimit)

	rows := make([]sensorRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, sensorRow{
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			Lux:         rec.Lux,
			Timestamp:   rec.Time.Format(timestampLayout),
		})
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleLEDHistory(w http.ResponseWriter, r *http.Request) {
	recs := h.state.LEDHistory(historyLimit)

	rows := make([]ledRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, ledRow{
			LED1:      rec.LED1,
			LED2:      rec.LED2,
			Timestamp: rec.Time.Format(timestampLayout),
		})
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string, err error) {
	h.log.Error(message, "http_status", code, "error", err)

	respondWithJSON(w, code, struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Error: message})
}
