package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// 器材照片：原圖壓到最大寬 1200，另外裁一張 60x60 正方形縮圖，
// 兩張都以 JPEG 上傳到 Supabase Storage 的公開 bucket。
// 上傳失敗不影響器材本身的寫入，呼叫端自行降級。

const (
	maxImageBytes = 5 * 1024 * 1024
	fullMaxWidth  = 1200
	thumbSize     = 60
)

var ErrImageTooLarge = errors.New("image exceeds 5MB limit")

type Store struct {
	baseURL string
	apiKey  string
	bucket  string
	hc      *http.Client
}

func NewStore(baseURL, apiKey, bucket string) *Store {
	return &Store{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled 沒設定金鑰就整個停用（開發環境常態）
func (s *Store) Enabled() bool { return s.baseURL != "" && s.apiKey != "" }

func fullName(equipmentID uint) string  { return fmt.Sprintf("equipment_%d_full.jpg", equipmentID) }
func thumbName(equipmentID uint) string { return fmt.Sprintf("equipment_%d_thumb.jpg", equipmentID) }

// ProcessAndUpload 解碼（含 EXIF 轉正）、縮放、上傳，回傳
// (原圖公開 URL, 縮圖公開 URL)。
func (s *Store) ProcessAndUpload(ctx context.Context, data []byte, equipmentID uint) (string, string, error) {
	if !s.Enabled() {
		return "", "", errors.New("image store is not configured")
	}
	if len(data) > maxImageBytes {
		return "", "", ErrImageTooLarge
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	full := src
	if src.Bounds().Dx() > fullMaxWidth {
		full = imaging.Resize(src, fullMaxWidth, 0, imaging.Lanczos)
	}
	thumb := imaging.Fill(src, thumbSize, thumbSize, imaging.Center, imaging.Lanczos)

	var fullBuf, thumbBuf bytes.Buffer
	if err := imaging.Encode(&fullBuf, full, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", "", err
	}
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", "", err
	}

	fullURL, err := s.upload(ctx, fullName(equipmentID), fullBuf.Bytes())
	if err != nil {
		return "", "", err
	}
	thumbURL, err := s.upload(ctx, thumbName(equipmentID), thumbBuf.Bytes())
	if err != nil {
		return "", "", err
	}
	return fullURL, thumbURL, nil
}

// DeleteEquipmentImages 軟刪除器材時順手清掉圖片；檔案不存在不算錯
func (s *Store) DeleteEquipmentImages(ctx context.Context, equipmentID uint) error {
	if !s.Enabled() {
		return nil
	}
	body, _ := json.Marshal(map[string][]string{
		"prefixes": {fullName(equipmentID), thumbName(equipmentID)},
	})
	url := fmt.Sprintf("%s/storage/v1/object/%s", s.baseURL, s.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("delete images for equipment %d: %s %s", equipmentID, resp.Status, b)
	}
	return nil
}

func (s *Store) upload(ctx context.Context, name string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("x-upsert", "true")

	resp, err := s.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: %s %s", name, resp.Status, b)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, name), nil
}
