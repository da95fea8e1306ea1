package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/capability-tree/pkg/api"
	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/core/cache"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/storage/file"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	repo, err := file.NewTreeRepo(filepath.Join(t.TempDir(), "trees"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Captree.Report.Enabled = false
	eng := engine.NewEngine(cfg, repo, cache.NewMemoryComputedCache(time.Minute, time.Minute), events.NewBus(false))
	require.NoError(t, eng.Start(context.Background()))

	server := httptest.NewServer(api.SetupRouter(eng, "client-test"))
	t.Cleanup(func() {
		server.Close()
		eng.Stop()
	})
	return New(server.URL + "/")
}

const roadmap = `name: Roadmap
nodes:
  - id: auth
    name: Auth
    status: completed
  - id: api
    name: API
    prerequisites: [auth]
    tier: 4
`

func TestClient(t *testing.T) {
	c := newTestClient(t)

	t.Run("健康检查", func(t *testing.T) {
		health, err := c.Health()
		require.NoError(t, err)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "client-test", health.Version)
	})

	t.Run("导入并重建计算结果", func(t *testing.T) {
		ct, err := c.ImportTree("roadmap", roadmap)
		require.NoError(t, err)
		assert.Equal(t, "roadmap", ct.ID)
		assert.Equal(t, 4, ct.TierOf("api"), "显式层级覆盖")
		require.Len(t, ct.Tiers[4], 1)

		got, err := c.GetTree("roadmap")
		require.NoError(t, err)
		assert.Equal(t, []string{"api"}, got.Descendants("auth").Sorted())
	})

	t.Run("列表", func(t *testing.T) {
		list, err := c.ListTrees(10, 0)
		require.NoError(t, err)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "roadmap", list.Items[0].ID)
		assert.Equal(t, 2, list.Items[0].NodeCount)
		assert.NotEmpty(t, list.Items[0].Revision)
	})

	t.Run("原始YAML", func(t *testing.T) {
		data, err := c.GetRaw("roadmap")
		require.NoError(t, err)
		assert.Contains(t, string(data), "tier: 4")
	})

	t.Run("修改状态", func(t *testing.T) {
		ct, err := c.SetStatus("roadmap", "api", types.StatusInProgress)
		require.NoError(t, err)
		n, ok := ct.Node("api")
		require.True(t, ok)
		assert.Equal(t, types.StatusInProgress, n.Status)
	})

	t.Run("校验错误带明细", func(t *testing.T) {
		_, err := c.UpdateNode("roadmap", "api", map[string]any{"prerequisites": []string{"ghost"}})
		require.Error(t, err)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, []string{`Node "api" has invalid prerequisite "ghost"`}, apiErr.Details)
	})

	t.Run("严格检查", func(t *testing.T) {
		check, err := c.CheckTree("roadmap")
		require.NoError(t, err)
		assert.True(t, check.Acyclic)
	})

	t.Run("不存在的树", func(t *testing.T) {
		_, err := c.GetTree("missing")
		require.Error(t, err)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

		_, err = c.GetRaw("missing")
		require.Error(t, err)
	})

	t.Run("删除", func(t *testing.T) {
		require.NoError(t, c.DeleteTree("roadmap"))
		require.Error(t, c.DeleteTree("roadmap"))
	})
}
