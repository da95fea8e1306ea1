package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/core/cache"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/storage/file"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *engine.Engine) {
	t.Helper()
	repo, err := file.NewTreeRepo(filepath.Join(t.TempDir(), "trees"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Captree.Report.Enabled = false
	eng := engine.NewEngine(cfg, repo, cache.NewMemoryComputedCache(time.Minute, time.Minute), events.NewBus(false))
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(func() { eng.Stop() })

	return SetupRouter(eng, "1.0.0-test"), eng
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (dto.APIResponse[map[string]any], map[string]any) {
	t.Helper()
	var resp dto.APIResponse[map[string]any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp, resp.Data
}

// roadmapDoc auth(completed) <- api(planned) <- ui(planned)
func roadmapDoc(id string) map[string]any {
	return map[string]any{
		"id":   id,
		"name": "Roadmap",
		"nodes": []any{
			map[string]any{"id": "auth", "name": "Auth", "status": "completed", "effort_points": 3},
			map[string]any{"id": "api", "name": "API", "prerequisites": []any{"auth"}, "effort_points": 5},
			map[string]any{"id": "ui", "name": "UI", "prerequisites": []any{"api"}},
		},
	}
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := doJSON(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)

		var resp dto.APIResponse[dto.HealthResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Data.Status)
		assert.Equal(t, "1.0.0-test", resp.Data.Version)
		assert.Empty(t, resp.Data.ReportNextRun, "未启用进度报告")
	}

	w := doJSON(router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthRoutes_ReportNextRun(t *testing.T) {
	repo, err := file.NewTreeRepo(filepath.Join(t.TempDir(), "trees"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Captree.Report.Enabled = true
	cfg.Captree.Report.CronExpr = "0 0 * * * *"
	eng := engine.NewEngine(cfg, repo, nil, nil)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(func() { eng.Stop() })
	router := SetupRouter(eng, "1.0.0-test")

	w := doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.APIResponse[dto.HealthResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ReportNextRun)

	next, err := time.Parse(time.RFC3339, resp.Data.ReportNextRun)
	require.NoError(t, err)
	assert.True(t, next.After(time.Now().Add(-time.Second)))
	assert.Zero(t, next.Minute(), "整点执行")
}

func TestTreeRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("创建树返回201及计算结果", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc("roadmap"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp, data := decodeResponse(t, w)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, "roadmap", data["id"])
		assert.EqualValues(t, 8, data["total_effort_points"])
		assert.EqualValues(t, 3, data["completed_effort_points"])
		assert.Equal(t, map[string]any{
			"1": []any{"auth"},
			"2": []any{"api"},
			"3": []any{"ui"},
		}, data["tiers"])
	})

	t.Run("重复创建返回409", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc("roadmap"))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("不能作为存储键的id返回400", func(t *testing.T) {
		for _, id := range []string{"bad id", "bad id/..", "../escape"} {
			w := doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc(id))
			assert.Equal(t, http.StatusBadRequest, w.Code, "id=%q body=%s", id, w.Body.String())
		}

		w := doJSON(router, http.MethodPost, "/api/v1/trees/import", dto.ImportTreeRequest{
			ID:      "bad id",
			Content: "name: Imported\nnodes:\n  - id: a\n    name: A\n",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	t.Run("校验失败返回422及明细", func(t *testing.T) {
		doc := roadmapDoc("broken")
		doc["nodes"] = append(doc["nodes"].([]any), map[string]any{
			"id": "ops", "name": "Ops", "prerequisites": []any{"ghost"},
		})
		w := doJSON(router, http.MethodPost, "/api/v1/trees", doc)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp, data := decodeResponse(t, w)
		assert.Equal(t, 422, resp.Code)
		assert.Equal(t, "tree has invalid prerequisites", resp.Message)
		assert.Equal(t, []any{`Node "ops" has invalid prerequisite "ghost"`}, data["details"])

		w = doJSON(router, http.MethodGet, "/api/v1/trees/broken", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "校验失败不落库")
	})

	t.Run("请求体不是JSON返回400", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/trees", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("获取不存在的树返回404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("原始YAML带ETag", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/raw", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/yaml")
		assert.NotEmpty(t, w.Header().Get("ETag"))
		assert.Contains(t, w.Body.String(), "name: Roadmap")
		assert.NotContains(t, w.Body.String(), "computed_tier")
	})

	t.Run("列表分页", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc("second"))
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, http.MethodGet, "/api/v1/trees?limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[dto.ListResponse[map[string]any]]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Total)
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "roadmap", resp.Data.Items[0]["id"])
		assert.True(t, resp.Data.HasMore)

		w = doJSON(router, http.MethodGet, "/api/v1/trees?limit=1&offset=1", nil)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "second", resp.Data.Items[0]["id"])
		assert.False(t, resp.Data.HasMore)

		w = doJSON(router, http.MethodGet, "/api/v1/trees?limit=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("替换时id不可变", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/v1/trees/roadmap", roadmapDoc("other"))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		doc := roadmapDoc("roadmap")
		doc["name"] = "Roadmap v2"
		w = doJSON(router, http.MethodPut, "/api/v1/trees/roadmap", doc)
		require.Equal(t, http.StatusOK, w.Code)
		_, data := decodeResponse(t, w)
		assert.Equal(t, "Roadmap v2", data["name"])
	})

	t.Run("导入YAML", func(t *testing.T) {
		content := "name: Imported\nnodes:\n  - id: a\n    name: A\n  - id: b\n    name: B\n    prerequisites: [a]\n"
		w := doJSON(router, http.MethodPost, "/api/v1/trees/import", dto.ImportTreeRequest{ID: "imported", Content: content})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		_, data := decodeResponse(t, w)
		assert.Equal(t, "imported", data["id"])

		w = doJSON(router, http.MethodPost, "/api/v1/trees/import", map[string]any{"id": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code, "content必填")

		w = doJSON(router, http.MethodPost, "/api/v1/trees/import", dto.ImportTreeRequest{ID: "x", Content: "name: [unclosed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("删除树", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/v1/trees/second", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodDelete, "/api/v1/trees/second", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNodeRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc("roadmap")).Code)

	t.Run("新增节点", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/trees/roadmap/nodes", map[string]any{
			"id": "docs", "name": "Docs", "prerequisites": []any{"api"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		_, data := decodeResponse(t, w)
		assert.Len(t, data["nodes"], 4)
	})

	t.Run("新增重复节点返回422", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/trees/roadmap/nodes", map[string]any{"id": "docs", "name": "Again"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("部分更新状态", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/v1/trees/roadmap/nodes/api", map[string]any{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		_, data := decodeResponse(t, w)
		assert.EqualValues(t, 8, data["completed_effort_points"])
	})

	t.Run("修改id返回400", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/v1/trees/roadmap/nodes/api", map[string]any{"id": "renamed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("非法状态返回422", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/v1/trees/roadmap/nodes/api", map[string]any{"status": "done"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("更新不存在的节点返回404", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/v1/trees/roadmap/nodes/ghost", map[string]any{"name": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("删除仍被引用的节点返回422", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/v1/trees/roadmap/nodes/api", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("删除叶子节点", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/v1/trees/roadmap/nodes/docs", nil)
		require.Equal(t, http.StatusOK, w.Code)
		_, data := decodeResponse(t, w)
		assert.Len(t, data["nodes"], 3)
	})
}

func TestQueryRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/trees", roadmapDoc("roadmap")).Code)

	t.Run("祖先与后代", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/nodes/ui/ancestors", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[dto.NodeSetResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"api", "auth"}, resp.Data.IDs)

		w = doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/nodes/auth/descendants", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"api", "ui"}, resp.Data.IDs)
	})

	t.Run("未知节点返回404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/nodes/ghost/ancestors", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("是否可开始", func(t *testing.T) {
		var resp dto.APIResponse[dto.CanStartResponse]

		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/nodes/api/can-start", nil)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.CanStart)

		w = doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/nodes/ui/can-start", nil)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.CanStart)
	})

	t.Run("可开始节点", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/ready", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[struct {
			Nodes []map[string]any `json:"nodes"`
		}]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Nodes, 1)
		assert.Equal(t, "api", resp.Data.Nodes[0]["id"])
		assert.EqualValues(t, 2, resp.Data.Nodes[0]["computed_tier"])
	})

	t.Run("进度", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/progress", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[dto.ProgressResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Data.MaxTier)
		assert.Equal(t, 3, resp.Data.Progress.TotalNodes)
		assert.Equal(t, 1, resp.Data.Progress.CompletedNodes)
		assert.Equal(t, 8, resp.Data.Progress.TotalEffort)
	})

	t.Run("严格无环检查", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/check", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[dto.CheckResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Acyclic)
		assert.Equal(t, []string{"auth"}, resp.Data.Roots)
	})

	t.Run("有环的树仍可读取，检查报告环", func(t *testing.T) {
		cyclic := map[string]any{
			"id":   "loop",
			"name": "Loop",
			"nodes": []any{
				map[string]any{"id": "a", "name": "A", "prerequisites": []any{"b"}},
				map[string]any{"id": "b", "name": "B", "prerequisites": []any{"a"}},
			},
		}
		w := doJSON(router, http.MethodPost, "/api/v1/trees", cyclic)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		_, data := decodeResponse(t, w)
		assert.NotEmpty(t, data["warnings"])

		w = doJSON(router, http.MethodGet, "/api/v1/trees/loop/check", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.APIResponse[dto.CheckResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Acyclic)
		assert.NotEmpty(t, resp.Data.Error)
	})
}

func TestViewRoute(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := roadmapDoc("roadmap")
	doc["nodes"] = append(doc["nodes"].([]any), map[string]any{
		"id": "legacy", "name": "Legacy", "status": "blocked", "blocked_reason": "waiting on vendor",
	})
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/trees", doc).Code)

	w := doJSON(router, http.MethodGet, "/api/v1/trees/roadmap/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	html, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)

	assert.Equal(t, "Roadmap", html.Find("h1#tree-name").Text())

	var tiers []string
	html.Find("section.tier").Each(func(_ int, s *goquery.Selection) {
		tier, _ := s.Attr("data-tier")
		tiers = append(tiers, tier)
	})
	assert.Equal(t, []string{"1", "2", "3"}, tiers)

	tier1 := html.Find(`section.tier[data-tier="1"] div.node`)
	assert.Equal(t, 2, tier1.Length(), "auth 与 legacy 都在第一层")

	apiNode := html.Find(`div.node[data-id="api"]`)
	assert.True(t, apiNode.HasClass("ready"))
	assert.True(t, apiNode.HasClass("status-planned"))
	assert.Contains(t, apiNode.Find(".effort").Text(), "5 pts")

	assert.False(t, html.Find(`div.node[data-id="ui"]`).HasClass("ready"))
	assert.Equal(t, "waiting on vendor", html.Find(`div.node[data-id="legacy"] .blocked-reason`).Text())

	percent, ok := html.Find("p#progress").Attr("data-percent")
	assert.True(t, ok)
	assert.NotEmpty(t, percent)

	w = doJSON(router, http.MethodGet, "/api/v1/trees/missing/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchRoute(t *testing.T) {
	router, eng := newTestRouter(t)
	ctx := context.Background()
	_, err := eng.CreateTree(ctx, roadmapDoc("roadmap"))
	require.NoError(t, err)

	server := httptest.NewServer(router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/trees/roadmap/watch"

	t.Run("不存在的树在升级前返回404", func(t *testing.T) {
		missing := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/trees/missing/watch"
		_, resp, err := websocket.DefaultDialer.Dial(missing, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// tree 保持原始JSON，只关心是否存在以及层级
	type watchFrame struct {
		Event *events.TreeEvent `json:"event"`
		Tree  map[string]any    `json:"tree"`
	}
	readMessage := func() (*watchFrame, error) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var msg watchFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	}

	snapshot, err := readMessage()
	require.NoError(t, err)
	assert.Nil(t, snapshot.Event, "首条消息是当前快照")
	require.NotNil(t, snapshot.Tree)
	assert.Equal(t, "roadmap", snapshot.Tree["id"])

	_, err = eng.UpdateNode(ctx, "roadmap", "api", map[string]any{"status": "in_progress"})
	require.NoError(t, err)

	update, err := readMessage()
	require.NoError(t, err)
	require.NotNil(t, update.Event)
	assert.Equal(t, events.EventNodeUpdated, update.Event.Type)
	assert.Equal(t, "api", update.Event.NodeID)
	assert.NotEmpty(t, update.Event.Revision)
	require.NotNil(t, update.Tree)
	nodes := update.Tree["nodes"].([]any)
	assert.Equal(t, "in_progress", nodes[1].(map[string]any)["status"])

	require.NoError(t, eng.DeleteTree(ctx, "roadmap"))

	deleted, err := readMessage()
	require.NoError(t, err)
	require.NotNil(t, deleted.Event)
	assert.Equal(t, events.EventTreeDeleted, deleted.Event.Type)
	assert.Nil(t, deleted.Tree)

	_, err = readMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestAPIServer_Addr(t *testing.T) {
	cfg := config.Default()
	cfg.Captree.Server.Host = "127.0.0.1"
	cfg.Captree.Server.Port = 9091

	server := NewAPIServer(nil, ServerConfigFrom(cfg), "test")
	assert.Equal(t, "127.0.0.1:9091", server.Addr())
	assert.NoError(t, server.Shutdown(context.Background()), "未启动时关闭是空操作")
	assert.Equal(t, "0.0.0.0:8080", NewAPIServer(nil, DefaultServerConfig(), "test").Addr())
}
