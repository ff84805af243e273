package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NicolasHaas/pixndrive/pkg/model"
)

const maxLoginBody = 1 << 20

type ctxKey struct{}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Post("/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/files", s.handleListFiles)
		r.Get("/files/{fileID}", s.handleGetFile)
		r.Post("/upload", s.handleUpload)
	})
	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, model.ErrorResponse{Error: message})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody)).Decode(&req); err != nil {
		s.metrics.logins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := model.ValidateCredentials(req.Email, req.Password); err != nil {
		s.metrics.logins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := s.state.authenticate(req.Email, req.Password, s.cfg.Open)
	if err != nil {
		s.metrics.logins.WithLabelValues("rejected").Inc()
		if !errors.Is(err, errBadCredentials) && !errors.Is(err, errUnknownAccount) {
			slog.Error("authenticate", "email", req.Email, "err", err)
		}
		respondError(w, http.StatusUnauthorized, errBadCredentials.Error())
		return
	}

	token, err := s.state.issueToken(profile.Email)
	if err != nil {
		slog.Error("issue token", "err", err)
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.metrics.logins.WithLabelValues("ok").Inc()
	slog.Info("login", "user", profile.ID, "email", profile.Email)
	respondJSON(w, http.StatusOK, model.LoginResponse{User: profile, Token: token})
}

// requireBearer resolves "Authorization: Bearer <token>" to an account.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		key, found := s.state.lookupToken(strings.TrimSpace(token))
		if !ok || !found {
			respondError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, key)))
	})
}

func accountFrom(r *http.Request) string {
	key, _ := r.Context().Value(ctxKey{}).(string)
	return key
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.FilesResponse{Files: s.state.listFiles(accountFrom(r))})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.state.getFile(accountFrom(r), chi.URLParam(r, "fileID"))
	if !ok {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.uploadReadError(w, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		rec, err := s.consumeFilePart(r, part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		if err != nil {
			s.uploadReadError(w, err)
			return
		}
		s.state.addFile(accountFrom(r), rec)
		slog.Info("upload", "id", rec.ID, "name", rec.Name, "size", rec.Size)
		respondJSON(w, http.StatusOK, model.UploadResponse{Success: true, FileURL: rec.URL, FileID: rec.ID})
		return
	}
	respondError(w, http.StatusBadRequest, `missing form field "file"`)
}

// consumeFilePart counts and discards the part body, sniffing the type from
// its first bytes when the client sent none.
func (s *Server) consumeFilePart(r *http.Request, name, contentType string, body io.Reader) (model.FileRecord, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return model.FileRecord{}, err
	}
	head = head[:n]
	rest, err := io.Copy(io.Discard, body)
	if err != nil {
		return model.FileRecord{}, err
	}
	size := int64(n) + rest
	s.metrics.uploadedBytes.Add(float64(size))

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = model.DetectType(name, head)
	}
	if name == "" {
		name = "upload"
	}
	id := uuid.NewString()
	return model.FileRecord{
		ID:         id,
		Name:       name,
		Type:       contentType,
		Size:       size,
		URL:        s.fileURL(r, id),
		UploadedAt: s.now().Format(model.TimeLayout),
	}, nil
}

func (s *Server) uploadReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	respondError(w, http.StatusBadRequest, "malformed multipart body")
}
