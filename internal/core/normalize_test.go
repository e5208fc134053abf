package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeObjects is an in-memory ObjectSource keyed by "bucket/key".
type fakeObjects struct {
	objects map[string][]byte
	err     error
}

func (f *fakeObjects) Exists(_ context.Context, bucket, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.objects[bucket+"/"+key]
	return ok, nil
}

func (f *fakeObjects) Download(_ context.Context, bucket, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func TestNormalize_CSVFile(t *testing.T) {
	path := writeFile(t, "claims.csv",
		"member_id,claim_id,claim_amount,service_date,payer_name\n"+
			"1,101,200,2025-01-01,Anthem\n"+
			"2,102,not_a_number,bad-date,Anthem\n")

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)

	assert.Equal(t, []string{"member_id", "claim_id", "claim_amount", "service_date", "payer_name"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, []any{int64(1), int64(101), "200", "2025-01-01", "Anthem"}, tbl.Rows[0])
	assert.Equal(t, []any{int64(2), int64(102), "not_a_number", "bad-date", "Anthem"}, tbl.Rows[1])
}

func TestNormalize_NumericAmountsInferred(t *testing.T) {
	path := writeFile(t, "claims.csv", "claim_amount,payer_name\n500,manual\n1500.25,\n")

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)

	assert.Equal(t, []any{500.0, "manual"}, tbl.Rows[0])
	assert.Equal(t, []any{1500.25, nil}, tbl.Rows[1])
}

func TestNormalize_BOMAndRaggedRows(t *testing.T) {
	content := "\xEF\xBB\xBFmember_id,claim_amount,payer_name\n\n1,10\n2,20,x,extra\n"
	path := writeFile(t, "claims.csv", content)

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)

	assert.Equal(t, "member_id", tbl.Columns[0], "BOM should be stripped from the first header")
	require.Equal(t, 2, tbl.Len(), "blank lines are skipped")
	assert.Equal(t, []any{int64(1), int64(10), nil}, tbl.Rows[0])
	assert.Equal(t, []any{int64(2), int64(20), "x"}, tbl.Rows[1])
}

func TestNormalize_InvalidUTF8Replaced(t *testing.T) {
	path := writeFile(t, "claims.csv", "payer_name\nan\x80them\n")

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)
	assert.Equal(t, "an\uFFFDthem", tbl.Rows[0][0])
}

func TestNormalize_Delimiters(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "tsv extension", file: "claims.tsv", content: "member_id\tpayer_name\n1\tcigna\n"},
		{name: "sniffed semicolon", file: "claims.txt", content: "member_id;payer_name\n1;cigna\n"},
		{name: "sniffed pipe", file: "claims.dat", content: "member_id|payer_name\n1|cigna\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
			require.NoError(t, err)
			assert.Equal(t, []string{"member_id", "payer_name"}, tbl.Columns)
			assert.Equal(t, []any{int64(1), "cigna"}, tbl.Rows[0])
		})
	}
}

func TestNormalize_DuplicateHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"a", "a.1", "b", "a.2", "Unnamed: 4"},
		dedupeHeaders([]string{"a", " a ", "b", "a", ""}))

	assert.Equal(t,
		[]string{"a.1", "a", "a.2"},
		dedupeHeaders([]string{"a.1", "a", "a"}))
}

func TestNormalize_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "\n\n")

	_, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestNormalize_HeaderOnly(t *testing.T) {
	path := writeFile(t, "claims.csv", "member_id,claim_amount\n")

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"member_id", "claim_amount"}, tbl.Columns)
	assert.Zero(t, tbl.Len())
}

func TestNormalize_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"member_id", "claim_id", "claim_amount", "service_date", "payer_name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, 101, "200", "2025-01-01", "cigna"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2, 102, "300.5", "2025-01-02", "cigna"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	path := writeFile(t, "claims.xlsx", buf.String())

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.NoError(t, err)

	assert.Equal(t, []string{"member_id", "claim_id", "claim_amount", "service_date", "payer_name"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []any{int64(1), int64(101), 200.0, "2025-01-01", "cigna"}, tbl.Rows[0])
	assert.Equal(t, []any{int64(2), int64(102), 300.5, "2025-01-02", "cigna"}, tbl.Rows[1])

	t.Run("detected by magic bytes", func(t *testing.T) {
		assert.True(t, isWorkbook("claims.bin", buf.Bytes()))
		assert.False(t, isWorkbook("claims.csv", []byte("a,b\n")))
	})
}

func TestNormalize_LiteralRecords(t *testing.T) {
	records := LiteralRecords{
		{"payer_name": "manual", "claim_amount": 500, "member_id": 1, "note": "x"},
		{"payer_name": "manual", "claim_amount": 1500.5, "member_id": 2, "extra": true},
	}

	tbl, err := NewNormalizer(nil).Normalize(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []string{"member_id", "claim_amount", "payer_name", "extra", "note"}, tbl.Columns)
	assert.Equal(t, []any{int64(1), int64(500), "manual", nil, "x"}, tbl.Rows[0])
	assert.Equal(t, []any{int64(2), 1500.5, "manual", true, nil}, tbl.Rows[1])
}

func TestNormalize_ManualRecords(t *testing.T) {
	tbl, err := NewNormalizer(nil).Normalize(context.Background(), ManualRecords())
	require.NoError(t, err)

	assert.Equal(t, claimColumns, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []any{int64(1), int64(101), int64(500), "2025-01-01", "manual"}, tbl.Rows[0])
	assert.Equal(t, []any{int64(2), int64(102), int64(1500), "2025-01-02", "manual"}, tbl.Rows[1])
}

func TestNormalize_Unsupported(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Normalize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = n.Normalize(context.Background(), FilePath(t.TempDir()))
	assert.ErrorIs(t, err, ErrUnsupportedInput, "a directory is not a table")

	_, err = n.Normalize(context.Background(), FilePath("s3://bucket/claims.csv"))
	assert.ErrorIs(t, err, ErrUnsupportedInput, "object paths need an object source")
}

func TestExists(t *testing.T) {
	n := NewNormalizer(nil)
	ctx := context.Background()

	path := writeFile(t, "claims.csv", "member_id\n1\n")
	assert.NoError(t, n.Exists(ctx, FilePath(path)))

	err := n.Exists(ctx, FilePath(filepath.Join(t.TempDir(), "missing.csv")))
	assert.ErrorIs(t, err, ErrNotFound)

	err = n.Exists(ctx, FilePath(t.TempDir()))
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestNormalize_ObjectSource(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"claims-bucket/2025/anthem.csv": []byte("member_id,claim_amount\n1,200\n"),
	}}
	n := NewNormalizer(objects)
	ctx := context.Background()

	require.NoError(t, n.Exists(ctx, "s3://claims-bucket/2025/anthem.csv"))
	assert.ErrorIs(t, n.Exists(ctx, "s3://claims-bucket/2025/cigna.csv"), ErrNotFound)
	assert.ErrorIs(t, n.Exists(ctx, "s3://claims-bucket"), ErrUnsupportedInput)

	tbl, err := n.Normalize(ctx, FilePath("s3://claims-bucket/2025/anthem.csv"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(200)}, tbl.Rows[0])

	objects.err = errors.New("s3 api error AccessDenied")
	err = n.Exists(ctx, "s3://claims-bucket/2025/anthem.csv")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := parseObjectURI("s3://b/dir/file.csv")
	require.NoError(t, err)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "dir/file.csv", key)

	for _, bad := range []string{"s3://", "s3://b", "s3://b/", "s3:///key"} {
		_, _, err := parseObjectURI(bad)
		assert.ErrorIs(t, err, ErrUnsupportedInput, bad)
	}
}

func TestNormalize_UnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read any file")
	}
	path := writeFile(t, "locked.csv", "a\n1\n")
	require.NoError(t, os.Chmod(path, 0o000))

	_, err := NewNormalizer(nil).Normalize(context.Background(), FilePath(path))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
