package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/agent"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/ingest"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/store"
)

const maxUploadBytes = 64 << 20 // 64 MB across all documents

// Handler owns the report-generation endpoints: job creation, status
// polling, result retrieval, and the SSE progress stream.
type Handler struct {
	manager *agent.Manager
	repo    *store.ReportJobRepo
	cache   *store.ProgressCache
	config  pipeline.Config

	mu   sync.Mutex
	runs map[string]*feed
}

func NewHandler(manager *agent.Manager, repo *store.ReportJobRepo, cache *store.ProgressCache, config pipeline.Config) *Handler {
	return &Handler{
		manager: manager,
		repo:    repo,
		cache:   cache,
		config:  config,
		runs:    make(map[string]*feed),
	}
}

type generateResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// HandleGenerate accepts a multipart upload (company_name + document files),
// creates the job record, and starts the pipeline in the background.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	companyName := r.FormValue("company_name")
	if companyName == "" {
		http.Error(w, "company_name is required", http.StatusBadRequest)
		return
	}

	var raw []ingest.RawDocument
	if r.MultipartForm != nil {
		for _, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				file, err := fh.Open()
				if err != nil {
					http.Error(w, fmt.Sprintf("Failed to read upload %s: %v", fh.Filename, err), http.StatusBadRequest)
					return
				}
				data, err := io.ReadAll(file)
				file.Close()
				if err != nil {
					http.Error(w, fmt.Sprintf("Failed to read upload %s: %v", fh.Filename, err), http.StatusBadRequest)
					return
				}
				raw = append(raw, ingest.RawDocument{
					Filename: fh.Filename,
					MIMEType: fh.Header.Get("Content-Type"),
					Data:     data,
				})
			}
		}
	}
	if len(raw) == 0 {
		http.Error(w, "At least one document file is required", http.StatusBadRequest)
		return
	}

	documents := ingest.Prepare(raw)
	if len(documents) == 0 {
		http.Error(w, "No readable documents in upload", http.StatusBadRequest)
		return
	}

	reportID := uuid.New().String()
	if err := h.repo.CreateJob(r.Context(), reportID, companyName); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create job: %v", err), http.StatusInternalServerError)
		return
	}

	job := &pipeline.Job{
		ReportID:    reportID,
		CompanyName: companyName,
		Documents:   documents,
	}
	go h.runPipeline(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(generateResponse{ReportID: reportID, Status: "pending"})
}

// runPipeline executes one job to completion on its own goroutine. The run
// has its own context: the HTTP request that started it has long since
// returned.
func (h *Handler) runPipeline(job *pipeline.Job) {
	runFeed := &feed{}
	h.mu.Lock()
	h.runs[job.ReportID] = runFeed
	h.mu.Unlock()

	persister := pipeline.NewAsyncPersister(multiWriter{h.repo, runFeed}, 64)

	driver := pipeline.NewDriver(h.manager.GetProvider("pipeline"), h.config)
	driver.SetPersister(persister)
	driver.SetProgressFunc(func(stage int, message string, percent int) {
		fmt.Printf("[REPORT] %s: [%d%%] %s\n", job.ReportID, percent, message)
	})

	result := driver.Run(context.Background(), job)

	persister.Close()
	runFeed.CloseFeed()

	h.mu.Lock()
	delete(h.runs, job.ReportID)
	h.mu.Unlock()

	if result.Completed {
		fmt.Printf("[REPORT] %s: completed (%d passes, $%.4f)\n",
			job.ReportID, result.CompletedPasses, result.Metrics.TotalCost)
	} else {
		fmt.Printf("[REPORT] %s: failed at stage %d (%s): %s\n",
			job.ReportID, result.FailedStage, result.FailedStageName, result.Error)
	}
}

type statusResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// HandleStatus reports job status: Redis snapshot when fresh, Postgres
// otherwise.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	reportID := r.URL.Query().Get("id")
	if reportID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	if snapshot, ok := h.cache.Get(r.Context(), reportID); ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			ReportID: reportID,
			Status:   snapshot.Status,
			Progress: snapshot.Progress,
			Message:  snapshot.Message,
		})
		return
	}

	record, err := h.repo.Load(r.Context(), reportID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Report not found: %v", err), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		ReportID: record.ReportID,
		Status:   record.Status,
		Progress: record.Progress,
		Message:  record.Message,
	})
}

// HandleResult returns the full run result once the job has finished.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	reportID := r.URL.Query().Get("id")
	if reportID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	record, err := h.repo.Load(r.Context(), reportID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Report not found: %v", err), http.StatusNotFound)
		return
	}
	if record.Result == nil {
		http.Error(w, fmt.Sprintf("Report %s is still %s (%d%%)", reportID, record.Status, record.Progress), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record.Result)
}

type streamEvent struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Stage    int    `json:"stage,omitempty"`
}

// HandleStream provides an SSE stream of pipeline progress, including the
// events emitted before the client connected.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")

	reportID := r.URL.Query().Get("id")
	if reportID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	runFeed, running := h.runs[reportID]
	h.mu.Unlock()

	if !running {
		// The run is not live; send the persisted terminal state and close.
		record, err := h.repo.Load(r.Context(), reportID)
		if err != nil {
			http.Error(w, "Report ID not found", http.StatusNotFound)
			return
		}
		sendSSE(w, flusher, streamEvent{
			ReportID: record.ReportID,
			Status:   record.Status,
			Progress: record.Progress,
			Message:  record.Message,
		})
		sendSSEEvent(w, flusher, "done", record.Status)
		return
	}

	updates, history := runFeed.Subscribe()
	defer runFeed.Unsubscribe(updates)

	for _, update := range history {
		if err := sendSSE(w, flusher, toEvent(update)); err != nil {
			return
		}
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	notify := r.Context().Done()

	for {
		select {
		case update, open := <-updates:
			if !open {
				sendSSEEvent(w, flusher, "done", "finished")
				return
			}
			if err := sendSSE(w, flusher, toEvent(update)); err != nil {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func toEvent(update pipeline.StatusUpdate) streamEvent {
	ev := streamEvent{
		ReportID: update.ReportID,
		Status:   update.Status,
		Progress: update.Progress,
		Message:  update.Message,
	}
	if update.StageOutput != nil {
		ev.Stage = update.StageOutput.Stage
	}
	return ev
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
