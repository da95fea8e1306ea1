// Package client 能力树HTTP API客户端，供CLI远程命令使用
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/storage"
)

// APIError 服务端返回的非成功响应
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Details    []string // 校验失败时的明细
}

// Error 实现error接口
func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.StatusCode, strings.Join(e.Details, "; "))
}

// Client HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ========== Health API ==========

// Health 健康检查
func (c *Client) Health() (*dto.HealthResponse, error) {
	var data dto.HealthResponse
	if err := c.do(http.MethodGet, "/health", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ========== Tree API ==========

// ListTrees 列出树摘要
func (c *Client) ListTrees(limit, offset int) (*dto.ListResponse[storage.TreeSummary], error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}

	path := "/api/v1/trees"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var data dto.ListResponse[storage.TreeSummary]
	if err := c.do(http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTree 获取树并在本地重建计算结果
func (c *Client) GetTree(id string) (*graph.ComputedTree, error) {
	return c.computed(http.MethodGet, treePath(id), nil)
}

// GetRaw 获取持久化形态的YAML
func (c *Client) GetRaw(id string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + treePath(id) + "/raw")
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}

// ImportTree 上传YAML文档，存在则替换
func (c *Client) ImportTree(id, content string) (*graph.ComputedTree, error) {
	return c.computed(http.MethodPost, "/api/v1/trees/import", dto.ImportTreeRequest{ID: id, Content: content})
}

// DeleteTree 删除树
func (c *Client) DeleteTree(id string) error {
	return c.do(http.MethodDelete, treePath(id), nil, nil)
}

// CheckTree 严格无环检查
func (c *Client) CheckTree(id string) (*dto.CheckResponse, error) {
	var data dto.CheckResponse
	if err := c.do(http.MethodGet, treePath(id)+"/check", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ========== Node API ==========

// UpdateNode 部分更新节点
func (c *Client) UpdateNode(treeID, nodeID string, patch map[string]any) (*graph.ComputedTree, error) {
	return c.computed(http.MethodPatch, treePath(treeID)+"/nodes/"+url.PathEscape(nodeID), patch)
}

// SetStatus 修改节点状态
func (c *Client) SetStatus(treeID, nodeID string, status types.Status) (*graph.ComputedTree, error) {
	return c.UpdateNode(treeID, nodeID, map[string]any{"status": string(status)})
}

// ========== HTTP Methods ==========

func treePath(id string) string {
	return "/api/v1/trees/" + url.PathEscape(id)
}

// computed 服务端返回的ComputedTree只含层级ID，这里解码节点后本地重算
func (c *Client) computed(method, path string, body any) (*graph.ComputedTree, error) {
	var tree types.Tree
	if err := c.do(method, path, body, &tree); err != nil {
		return nil, err
	}
	return graph.Compute(&tree), nil
}

func (c *Client) do(method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return parseResponse(resp, result)
}

func parseResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	var envelope dto.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}
	if resp.StatusCode >= http.StatusBadRequest || envelope.Code != 0 {
		return parseError(resp.StatusCode, body)
	}

	if result == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("解析响应数据失败: %w", err)
	}
	return nil
}

func parseError(statusCode int, body []byte) *APIError {
	var envelope dto.APIResponse[struct {
		Details []string `json:"details"`
	}]
	apiErr := &APIError{StatusCode: statusCode, Code: statusCode}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = envelope.Code
	apiErr.Message = envelope.Message
	apiErr.Details = envelope.Data.Details
	return apiErr
}
