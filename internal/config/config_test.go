package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ENV_SESSDATA, "")
	t.Setenv(ENV_BILI_JCT, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "data/comments", cfg.DataDir)
	require.Equal(t, "Asia/Shanghai", cfg.Timezone)
	require.Equal(t, DefaultKeywords, cfg.Keywords)
	require.Equal(t, "https://api.bilibili.com", cfg.Api.BaseUrl)
	require.Equal(t, 20, cfg.Api.PageSize)
	require.Equal(t, TABLE_XLSX, cfg.Table.Format)
	require.Equal(t, "*/30 * * * *", cfg.Watch.Schedule)
	require.False(t, cfg.Notify.Email.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(`{
		data_dir: "/srv/comments",
		keywords: ["ad"],
		credential: { sessdata: "from-file", buvid3: "buvid" },
		table: { format: "sqlite", sqlite_file: "/srv/comments.db" },
		watch: { posts: ["BV1xx411c7mD"] },
	}`), 0600)
	require.NoError(t, err)

	t.Setenv(ENV_SESSDATA, "from-env")
	t.Setenv(ENV_BILI_JCT, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/comments", cfg.DataDir)
	require.Equal(t, []string{"ad"}, cfg.Keywords)
	require.Equal(t, "from-env", cfg.Credential.Sessdata)
	require.Equal(t, "buvid", cfg.Credential.Buvid3)
	require.Equal(t, TABLE_SQLITE, cfg.Table.Format)
	require.Equal(t, []string{"BV1xx411c7mD"}, cfg.Watch.Posts)
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())

	cfg.Table.Format = "csv"
	require.Error(t, cfg.Validate())

	cfg.Table.Format = TABLE_LIBSQL
	require.Error(t, cfg.Validate())
	cfg.Table.LibsqlUrl = "libsql://comments.turso.io"
	require.NoError(t, cfg.Validate())

	cfg.Api.PageSize = 100
	require.Error(t, cfg.Validate())
}

func TestEmptyKeywordListIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ keywords: [] }`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Keywords)
	require.NotNil(t, cfg.Keywords)
}
