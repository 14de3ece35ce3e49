package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/netx"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

// PayloadName is the file name sent with every upload. The real names live
// inside the encrypted archive.
const PayloadName = "payload.bin"

type VaultClient struct {
	baseURL string
	http    *http.Client
}

func NewVaultClient(baseURL string, timeout time.Duration) *VaultClient {
	return &VaultClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    netx.NewClient(timeout),
	}
}

// UploadRequest describes one upload. Proof is required by servers that
// verify upload proofs; its public[0] becomes the object id. Without a proof
// Secret must be set and the server derives the id from it.
type UploadRequest struct {
	Payload             []byte
	Proof               *zk.Bundle
	Secret              *big.Int
	ExpireHours         int
	DeleteAfterDownload bool
}

func (c *VaultClient) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := netx.Do(c.http, req)
	if err != nil {
		return mapHTTPError(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Upload sends an encrypted payload and returns the object id.
//
// With a proof the secret form field carries the commitment bytes, never the
// secret: the proof already binds the id to it. Without one it carries
// Secret.
func (c *VaultClient) Upload(ctx context.Context, r *UploadRequest) (string, error) {
	if r.Proof == nil {
		if err := zk.ValidateSecret(r.Secret); err != nil {
			return "", fmt.Errorf("upload without proof: %w", err)
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", PayloadName)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(r.Payload); err != nil {
		return "", err
	}

	fields := map[string]string{
		"expire_hours":          strconv.Itoa(r.ExpireHours),
		"delete_after_download": strconv.FormatBool(r.DeleteAfterDownload),
	}
	if r.Proof != nil {
		proof, err := json.Marshal(r.Proof.Proof)
		if err != nil {
			return "", err
		}
		public, err := json.Marshal(r.Proof.Public)
		if err != nil {
			return "", err
		}
		fields["zk_proof"] = string(proof)
		fields["zk_public"] = string(public)

		id, ok := new(big.Int).SetString(r.Proof.ObjectID(), 10)
		if !ok {
			return "", fmt.Errorf("bad public signal %q", r.Proof.ObjectID())
		}
		fields["secret"] = base64.StdEncoding.EncodeToString(zk.SecretBytes(id))
	} else {
		fields["secret"] = base64.StdEncoding.EncodeToString(zk.SecretBytes(r.Secret))
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		FileID string `json:"file_id"`
	}
	if err := c.post(ctx, "/upload", mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return out.FileID, nil
}

// Download presents a proof and returns the stored payload.
func (c *VaultClient) Download(ctx context.Context, b *zk.Bundle) ([]byte, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}

	var out struct {
		Ciphertext string `json:"ciphertext"`
	}
	if err := c.post(ctx, "/download", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}

	payload, err := base64.StdEncoding.DecodeString(out.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	return payload, nil
}

// Poseidon asks the server for the commitment of secret.
func (c *VaultClient) Poseidon(ctx context.Context, secret []byte) (string, error) {
	body, err := json.Marshal(map[string]string{"secret_b64": base64.StdEncoding.EncodeToString(secret)})
	if err != nil {
		return "", err
	}

	var out struct {
		Hash string `json:"hash"`
	}
	if err := c.post(ctx, "/poseidon", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	return out.Hash, nil
}
