package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/anadolic/inkwell/internal/auth"
	"github.com/anadolic/inkwell/internal/telemetry/metrics"
	"github.com/anadolic/inkwell/pkg"
)

type newEntryRequest struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Author       string `json:"author"`
	LastEditDate string `json:"last_edit_date"`
	Status       string `json:"status"`
}

type updateEntryRequest struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Author       string `json:"author"`
	LastEditDate string `json:"last_edit_date"`
	Status       string `json:"status"`
}

type entriesRepo interface {
	Add(ctx context.Context, entry *Entry) error
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id string) error
	ListVisible(ctx context.Context, includeDrafts bool) ([]*Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	EntriesCount(ctx context.Context) (int, error)
}

type Handler struct {
	repo    entriesRepo
	metrics *metrics.Manager
}

func NewHandler(
	repo entriesRepo,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blog/new", handler.handleNewEntry).Methods("POST", "OPTIONS").Name("new-entry")
	router.HandleFunc("/blog/update", handler.handleUpdateEntry).Methods("POST", "OPTIONS").Name("update-entry")
	router.HandleFunc("/blog/delete/{id}", handler.handleDeleteEntry).Methods("DELETE", "OPTIONS").Name("delete-entry")
	router.HandleFunc("/blog/all", handler.handleAll).Methods("GET").Name("all-entries")
	router.HandleFunc("/blog/post/{id}", handler.handleGetEntry).Methods("GET").Name("get-entry")
}

func (handler *Handler) handleNewEntry(w http.ResponseWriter, r *http.Request) {
	var newEntryReq newEntryRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&newEntryReq); err != nil {
			log.Errorf("new blog entry, unmarshal json params: %s", err)
			http.Error(w, "add entry failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("add new blog entry failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		newEntryReq = newEntryRequest{
			ID:           r.Form.Get("id"),
			Title:        r.Form.Get("title"),
			Content:      r.Form.Get("content"),
			Author:       r.Form.Get("author"),
			LastEditDate: r.Form.Get("last_edit_date"),
			Status:       r.Form.Get("status"),
		}
	}

	newEntry := &Entry{
		ID:           newEntryReq.ID,
		Title:        newEntryReq.Title,
		Content:      newEntryReq.Content,
		Author:       newEntryReq.Author,
		LastEditDate: newEntryReq.LastEditDate,
		Status:       Status(newEntryReq.Status),
	}

	if err := handler.repo.Add(r.Context(), newEntry); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("add new blog entry failed: %s", err)
		http.Error(w, "add new entry failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterEntriesCreated.Inc()
	log.Tracef("new blog entry %s: [%s] added", newEntry.ID, newEntry.Title)

	pkg.WriteResponse(
		w,
		pkg.ContentType.Text,
		fmt.Sprintf("added:%s", newEntry.ID),
		http.StatusCreated,
	)
}

func (handler *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var updateEntryReq updateEntryRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&updateEntryReq); err != nil {
			log.Errorf("update blog entry, unmarshal json params: %s", err)
			http.Error(w, "update entry failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("update blog entry failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		updateEntryReq = updateEntryRequest{
			ID:           r.Form.Get("id"),
			Title:        r.Form.Get("title"),
			Content:      r.Form.Get("content"),
			Author:       r.Form.Get("author"),
			LastEditDate: r.Form.Get("last_edit_date"),
			Status:       r.Form.Get("status"),
		}
	}

	if updateEntryReq.ID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	updatedEntry := &Entry{
		ID:           updateEntryReq.ID,
		Title:        updateEntryReq.Title,
		Content:      updateEntryReq.Content,
		Author:       updateEntryReq.Author,
		LastEditDate: updateEntryReq.LastEditDate,
		Status:       Status(updateEntryReq.Status),
	}

	if err := handler.repo.Update(r.Context(), updatedEntry); err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			http.Error(w, "entry not found", http.StatusNotFound)
		default:
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				http.Error(w, validationErr.Error(), http.StatusBadRequest)
				return
			}
			log.Errorf("update blog entry failed: %s", err)
			http.Error(w, "update entry failed", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%s", updatedEntry.ID))
}

func (handler *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete blog entry %s: %s", id, err)
		http.Error(w, "error, entry not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterEntriesDeleted.Inc()

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%s", id))
}

func (handler *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	isEditor := auth.AccessLevelFromContext(r.Context()) == auth.AccessLevelEditor

	entries, err := handler.repo.ListVisible(r.Context(), isEditor)
	if err != nil {
		log.Errorf("get all blog entries error: %s", err)
		http.Error(w, "get all entries error", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []*Entry{}
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal all blog entries error: %s", err)
		http.Error(w, "marshal all entries error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entriesJson)
}

func (handler *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("get blog entry %s: %s", id, err)
		http.Error(w, "get entry error", http.StatusInternalServerError)
		return
	}

	// a draft looks like a missing entry to anyone but editors
	isEditor := auth.AccessLevelFromContext(r.Context()) == auth.AccessLevelEditor
	if !entry.Visible(isEditor) {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}

	entryJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("marshal blog entry error: %s", err)
		http.Error(w, "marshal entry error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entryJson)
}
