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

package copier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/imse8006/csv-zip-router/pkg/copier"
	"github.com/imse8006/csv-zip-router/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var (
	testContext = testutils.Context
	writeFile   = testutils.WriteFile
	writeZip    = testutils.WriteZip
	readFile    = testutils.ReadFile
)

func TestExecuteIsolatesFailures(t *testing.T) {
	ctx := testContext(t)
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "one.csv"), "1")
	writeFile(t, filepath.Join(src, "three.csv"), "3")

	jobs := []copier.Job{
		{SourcePath: filepath.Join(src, "one.csv"), FinalPath: filepath.Join(dst, "one.csv")},
		{SourcePath: filepath.Join(src, "missing.csv"), FinalPath: filepath.Join(dst, "two.csv")},
		{SourcePath: filepath.Join(src, "three.csv"), FinalPath: filepath.Join(dst, "nested", "three.csv")},
	}

	results := copier.Execute(ctx, jobs, 2)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, jobs[i], res.Job, "results keep job order")
	}
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, errors.Is(results[1].Err, copier.ErrCopyFailed))
	assert.True(t, results[2].OK())

	assert.Equal(t, "1", readFile(t, filepath.Join(dst, "one.csv")))
	assert.Equal(t, "3", readFile(t, filepath.Join(dst, "nested", "three.csv")))
	_, err := os.Stat(filepath.Join(dst, "two.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteManyJobsSmallPool(t *testing.T) {
	ctx := testContext(t)
	src := t.TempDir()
	dst := t.TempDir()

	var jobs []copier.Job
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		writeFile(t, filepath.Join(src, name), name)
		jobs = append(jobs, copier.Job{SourcePath: filepath.Join(src, name), FinalPath: filepath.Join(dst, name)})
	}

	results := copier.Execute(ctx, jobs, 0)
	require.Len(t, results, len(jobs))
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, int64(1), res.Written.Bytes)
		assert.Len(t, res.Written.Digest, 64)
	}
}

func TestCopyFileOverwritesAtomically(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	dst := filepath.Join(dir, "out", "dst.csv")

	writeFile(t, src, "new content")
	writeFile(t, dst, "old content")

	w, err := copier.CopyFile(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, "new content", readFile(t, dst))
	assert.Equal(t, int64(len("new content")), w.Bytes)

	digest, err := copier.Digest(dst)
	require.NoError(t, err)
	assert.Equal(t, w.Digest, digest)

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestExtractMember(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	archive := filepath.Join(dir, "SYSFR_PGM_TARIF_GENERAL_2025_40.csv.zip")
	writeZip(t, archive, map[string]string{
		"export/SYSFR_PGM_TARIF_GENERAL_2025_40.csv": "a;b\n1;2\n",
		"notes.txt": "ignore me",
	})

	t.Run("extracts_member", func(t *testing.T) {
		dst := filepath.Join(dir, "out", "tarif.csv")
		w, err := copier.ExtractMember(ctx, archive, "export/SYSFR_PGM_TARIF_GENERAL_2025_40.csv", dst)
		require.NoError(t, err)
		assert.Equal(t, "a;b\n1;2\n", readFile(t, dst))
		assert.Equal(t, int64(8), w.Bytes)
	})

	t.Run("missing_member", func(t *testing.T) {
		_, err := copier.ExtractMember(ctx, archive, "nope.csv", filepath.Join(dir, "out", "nope.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, copier.ErrCopyFailed))
	})

	t.Run("corrupt_archive", func(t *testing.T) {
		bad := filepath.Join(dir, "broken.zip")
		writeFile(t, bad, "this is not a zip file")
		_, err := copier.ExtractMember(ctx, bad, "x.csv", filepath.Join(dir, "out", "x.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, copier.ErrArchiveMemberCorrupt))
	})

	t.Run("missing_archive", func(t *testing.T) {
		_, err := copier.ExtractMember(ctx, filepath.Join(dir, "absent.zip"), "x.csv", filepath.Join(dir, "out", "x.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, copier.ErrCopyFailed))
	})

	t.Run("executor_archive_job", func(t *testing.T) {
		dst := filepath.Join(dir, "exec", "tarif.csv")
		results := copier.Execute(ctx, []copier.Job{{
			SourcePath:      archive,
			Member:          "export/SYSFR_PGM_TARIF_GENERAL_2025_40.csv",
			FinalPath:       dst,
			IsArchiveMember: true,
		}}, 1)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "a;b\n1;2\n", readFile(t, dst))
	})
}
