// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/imse8006/csv-zip-router/pkg/source"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if name[len(name)-1] != '/' {
			_, err = w.Write([]byte("data:" + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("not a zip"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.csv"), []byte("c"), 0644))
	writeZip(t, filepath.Join(dir, "Export.ZIP"),
		"reports/",
		"reports/SYSFR_PGM_SALES_DATA_1.csv",
		"__MACOSX/reports/._SYSFR_PGM_SALES_DATA_1.csv",
		"readme.txt",
	)

	inputs, err := source.Scan(ctx, dir)
	require.NoError(t, err)

	var names []string
	for _, in := range inputs {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{"Export.ZIP", "a.csv", "b.csv", "broken.zip"}, names)

	export := inputs[0]
	assert.True(t, export.Archive)
	require.NoError(t, export.Err)
	require.Len(t, export.Members, 2)
	assert.Equal(t, "readme.txt", export.Members[0].Path)
	assert.Equal(t, "reports/SYSFR_PGM_SALES_DATA_1.csv", export.Members[1].Path)
	assert.Equal(t, "SYSFR_PGM_SALES_DATA_1.csv", export.Members[1].Name)

	assert.False(t, inputs[1].Archive)
	assert.Empty(t, inputs[1].Members)

	broken := inputs[3]
	assert.True(t, broken.Archive)
	assert.Error(t, broken.Err)
}

func TestScanMissingDir(t *testing.T) {
	_, err := source.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanFilesRejectsDirectories(t *testing.T) {
	_, err := source.ScanFiles(context.Background(), []string{t.TempDir()})
	assert.Error(t, err)
}
