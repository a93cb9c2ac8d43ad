package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"outfit-studio/internal/application/services"
	"outfit-studio/internal/application/usecases"
	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/valueobjects"
	"outfit-studio/model"
)

const (
	msgBusy          = "The AI service is busy right now. Please wait a moment and try again."
	msgInProgress    = "A generation is already running for this item."
	msgStale         = "The item changed while outfits were being generated."
	msgFileTooLarge  = "The image is too large."
	msgInternalError = "Something went wrong. Please try again."
)

type OutfitHandler struct {
	outfitUseCase *usecases.OutfitUseCase
	uploadService *services.UploadService
}

func NewOutfitHandler(outfitUseCase *usecases.OutfitUseCase, uploadService *services.UploadService) *OutfitHandler {
	return &OutfitHandler{
		outfitUseCase: outfitUseCase,
		uploadService: uploadService,
	}
}

func (h *OutfitHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write([]byte(indexHTML))
}

func (h *OutfitHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *OutfitHandler) HandleStyles(w http.ResponseWriter, r *http.Request) {
	catalog := valueobjects.Catalog()
	styles := make([]string, len(catalog))
	for i, style := range catalog {
		styles[i] = style.String()
	}

	h.sendJSON(w, http.StatusOK, model.StylesResponse{
		Success:          true,
		Styles:           styles,
		InitialBatchSize: valueobjects.InitialBatchSize,
	})
}

func (h *OutfitHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.outfitUseCase.CreateSession(r.Context())
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		h.sendError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	h.sendSession(w, http.StatusCreated, session, "")
}

func (h *OutfitHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.outfitUseCase.GetSession(r.Context(), sessionID(r))
	h.respond(w, session, err)
}

func (h *OutfitHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	// セッションが無ければ本文を読む前に返す
	if _, err := h.outfitUseCase.GetSession(r.Context(), id); err != nil {
		h.respond(w, nil, err)
		return
	}

	input, err := h.uploadService.ParseFromRequest(w, r)
	if err != nil && !errors.Is(err, services.ErrUnsupportedType) {
		slog.Warn("Upload parse failed", "session", id, "error", err)
		h.respond(w, nil, err)
		return
	}

	// 対応外の形式でも前の服とコーディネートは破棄する

	session, err := h.outfitUseCase.Upload(r.Context(), id, *input)
	h.respond(w, session, err)
}

func (h *OutfitHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	session, err := h.outfitUseCase.GenerateOutfits(r.Context(), sessionID(r))
	h.respond(w, session, err)
}

func (h *OutfitHandler) HandleGenerateMore(w http.ResponseWriter, r *http.Request) {
	session, err := h.outfitUseCase.GenerateMore(r.Context(), sessionID(r))
	h.respond(w, session, err)
}

func (h *OutfitHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	session, err := h.outfitUseCase.Reset(r.Context(), sessionID(r))
	h.respond(w, session, err)
}

func (h *OutfitHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.sendError(w, "invalid outfit index", http.StatusBadRequest)
		return
	}

	outfit, err := h.outfitUseCase.Outfit(r.Context(), sessionID(r), index)
	if err != nil {
		status, message := h.classifyError(err)
		h.sendError(w, message, status)
		return
	}

	data := outfit.Image().Data()
	w.Header().Set("Content-Type", outfit.Image().MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outfit.FileName()))
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write(data)
}

func sessionID(r *http.Request) entities.SessionID {
	return entities.SessionID(mux.Vars(r)["id"])
}

// respond はセッション操作の結果を返す。エラー時もセッションが取れていれば状態を含める
func (h *OutfitHandler) respond(w http.ResponseWriter, session *entities.Session, err error) {
	if err == nil {
		h.sendSession(w, http.StatusOK, session, "")
		return
	}

	status, message := h.classifyError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}

	// 画面に出すメッセージはセッション側を優先
	if session != nil && session.ErrorMessage() != "" && status != http.StatusTooManyRequests {
		message = session.ErrorMessage()
	}

	if session == nil {
		h.sendError(w, message, status)
		return
	}
	h.sendSession(w, status, session, message)
}

func (h *OutfitHandler) classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, entities.ErrOutfitNotFound):
		return http.StatusNotFound, "outfit not found"
	case errors.Is(err, entities.ErrNoImage):
		return http.StatusBadRequest, entities.MsgNoImage
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, msgFileTooLarge
	case errors.Is(err, services.ErrMissingFile), errors.Is(err, services.ErrUnsupportedType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, valueobjects.ErrUnsupportedImage):
		return http.StatusBadRequest, entities.MsgReadFailed
	case errors.Is(err, entities.ErrGenerationInProgress):
		return http.StatusConflict, msgInProgress
	case errors.Is(err, entities.ErrStaleGeneration):
		return http.StatusConflict, msgStale
	case h.isQuotaError(err):
		return http.StatusTooManyRequests, msgBusy
	}

	var genErr *entities.GenerationError
	if errors.As(err, &genErr) {
		return http.StatusBadGateway, entities.StyleFailedMessage(genErr.Style)
	}

	return http.StatusInternalServerError, msgInternalError
}

func (h *OutfitHandler) isQuotaError(err error) bool {
	return errors.Is(err, entities.ErrQuotaExceeded)
}

func (h *OutfitHandler) sendSession(w http.ResponseWriter, status int, session *entities.Session, message string) {
	h.sendJSON(w, status, model.SessionResponse{
		Success: status < http.StatusBadRequest,
		Error:   message,
		Session: toSessionModel(session),
		Gallery: BuildGallery(session),
	})
}

func (h *OutfitHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, statusCode, model.ErrorResponse{Success: false, Error: message})
}

func (h *OutfitHandler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
