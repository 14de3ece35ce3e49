package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

const (
	defaultExpireHours = 24
	maxExpireHours     = 10 * 365 * 24 // ten years
)

type uploadResponse struct {
	FileID string `json:"file_id"`
}

type downloadRequest struct {
	Proof  json.RawMessage `json:"proof"`
	Public json.RawMessage `json:"public"`
}

type downloadResponse struct {
	Ciphertext string `json:"ciphertext"`
}

type poseidonRequest struct {
	SecretB64 string `json:"secret_b64"`
}

type poseidonResponse struct {
	Hash string `json:"hash"`
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// decodeBase64 accepts padded and unpadded standard or URL-safe base64.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64")
}

func parseBoolish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxContentLengthMB*common.BytesPerMB)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, common.ErrPayloadTooLarge)
			return
		}
		s.writeError(w, r, badRequest("No file provided"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, err := s.parseUpload(r.MultipartForm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.vault.Upload(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := writeJSON(w, uploadResponse{FileID: id}); err != nil {
		s.log(r).Error(r.Context(), "write response", "error", err.Error())
	}
}

func (s *Server) parseUpload(form *multipart.Form) (*services.UploadRequest, error) {
	value := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	headers := form.File["file"]
	if len(headers) == 0 {
		return nil, badRequest("No file provided")
	}

	secretB64 := value("secret")
	if secretB64 == "" {
		return nil, badRequest("Missing secret")
	}
	secret, err := decodeBase64(secretB64)
	if err != nil {
		return nil, badRequest("Invalid base64 secret")
	}

	var bundle *zk.Bundle
	proofJSON, publicJSON := value("zk_proof"), value("zk_public")
	switch {
	case proofJSON == "" && publicJSON == "":
	case proofJSON == "" || publicJSON == "":
		return nil, fmt.Errorf("%w: missing ZK proof or public input", common.ErrMalformedProof)
	default:
		bundle, err = zk.ParseBundle([]byte(proofJSON), []byte(publicJSON))
		if err != nil {
			return nil, err
		}
	}

	hours := defaultExpireHours
	if v := value("expire_hours"); v != "" {
		hours, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, badRequest("Invalid expire_hours")
		}
		if hours > maxExpireHours {
			return nil, badRequest("expire_hours too large")
		}
	}

	parts := make([]services.Part, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, badRequest("Unreadable file part")
		}
		parts = append(parts, services.Part{Name: fh.Filename, Data: data})
	}

	return &services.UploadRequest{
		Parts:               parts,
		Proof:               bundle,
		Secret:              secret,
		TTL:                 time.Duration(hours) * time.Hour,
		DeleteAfterDownload: parseBoolish(value("delete_after_download")),
	}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("Invalid proof/public format"))
		return
	}

	bundle, err := zk.ParseBundle(req.Proof, req.Public)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.vault.Download(r.Context(), bundle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := writeJSON(w, downloadResponse{Ciphertext: base64.StdEncoding.EncodeToString(d.Payload)}); err != nil {
		// the client did not get the object, so it is not consumed
		s.log(r).Warn(r.Context(), "download response not delivered", "file_id", d.ID, "error", err.Error())
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	d.Complete(context.WithoutCancel(r.Context()))
}

func (s *Server) handlePoseidon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req poseidonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SecretB64 == "" {
		s.writeError(w, r, badRequest("Missing input"))
		return
	}

	secret, err := decodeBase64(req.SecretB64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("decode secret: %w", err))
		return
	}
	defer common.WipeByteArray(secret)

	hash, err := s.vault.Commit(r.Context(), secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := writeJSON(w, poseidonResponse{Hash: hash}); err != nil {
		s.log(r).Error(r.Context(), "write response", "error", err.Error())
	}
}
