package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Network fetches are blocking with an enforced timeout. A timeout is
// retryable, but retries are the caller's decision, not ours.
const DefaultFetchTimeout = 60 * time.Second

/**
 * 从云端获取一个文件的内容
 * @param {string} urlStr - Resource URL
 * @param {map[string]string} params - Optional query parameters
 * @returns {[]byte} Response body on HTTP 200
 * @returns {error} Transport error or non-200 status with response body
 */
func GetBytes(urlStr string, params map[string]string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest("GET", urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("GetBytes: %v", err)
	}
	vals := make(url.Values)
	for k, v := range params {
		vals.Set(k, v)
	}
	req.URL.RawQuery = vals.Encode()

	rsp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetBytes: %v", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != 200 {
		rspBody, _ := io.ReadAll(rsp.Body)
		return rspBody, fmt.Errorf("GetBytes('%s') code:%d, error:%s",
			urlStr, rsp.StatusCode, string(rspBody))
	}
	return io.ReadAll(rsp.Body)
}

/**
 * 从服务器获取一个文件
 * @param {string} urlStr - Resource URL
 * @param {string} savePath - Local target path, parent directories are created
 * @returns {error} Transport error, non-200 status, or local write failure
 */
func GetFile(urlStr string, savePath string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest("GET", urlStr, nil)
	if err != nil {
		return fmt.Errorf("GetFile('%s') failed: %v", urlStr, err)
	}

	rsp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GetFile('%s') failed: %v", urlStr, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != 200 {
		rspBody, _ := io.ReadAll(rsp.Body)
		return fmt.Errorf("GetFile('%s') code: %d, error:%s",
			urlStr, rsp.StatusCode, string(rspBody))
	}

	if err = os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return fmt.Errorf("GetFile('%s'): MkdirAll('%s') error:%v", urlStr, savePath, err)
	}
	out, err := os.Create(savePath)
	if err != nil {
		return fmt.Errorf("GetFile('%s'): create('%s') error: %v", urlStr, savePath, err)
	}
	defer out.Close()

	// 将响应流和文件流对接起来
	if _, err = io.Copy(out, rsp.Body); err != nil {
		return fmt.Errorf("GetFile('%s'): copy error: %v", urlStr, err)
	}
	return nil
}
