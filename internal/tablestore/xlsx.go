package tablestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const SHEET = "comments"

// XLSXStore keeps one workbook per post at <dir>/<post id>/<post id>_comments.xlsx.
type XLSXStore struct {
	dir string
}

func NewXLSXStore(dir string) XLSXStore {
	return XLSXStore{dir: dir}
}

func (s XLSXStore) Location(postID string) string {
	return filepath.Join(s.dir, postID, fmt.Sprintf("%s_comments.xlsx", postID))
}

func (s XLSXStore) Load(ctx context.Context, postID string) ([]Record, error) {
	path := s.Location(postID)
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recordsFromRows(rows)
}

// recordsFromRows maps columns by header name so that reordered columns still load.
func recordsFromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := map[string]int{}
	for i, name := range rows[0] {
		index[name] = i
	}
	for _, name := range COLUMNS {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}

	out := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx := index[name]
			if idx >= len(row) {
				return ""
			}
			return row[idx]
		}
		if len(row) == 0 {
			continue
		}

		likes, err := parseInt("like_count", cell("like_count"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		createdAt, err := parseInt("created_at", cell("created_at"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		commentID, err := parseInt("comment_id", cell("comment_id"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		out = append(out, Record{
			Author:      cell("author"),
			Message:     cell("message"),
			LikeCount:   likes,
			CreatedAt:   createdAt,
			Geolocation: cell("geolocation"),
			CommentID:   commentID,
			Permalink:   cell("permalink"),
		})
	}
	return out, nil
}

// Save writes the workbook next to the target and renames it into place, a failed save leaves
// the previous table untouched.
func (s XLSXStore) Save(ctx context.Context, postID string, records []Record) error {
	path := s.Location(postID)
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	err = f.SetSheetName(f.GetSheetName(0), SHEET)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SHEET)
	if err != nil {
		return err
	}

	header := make([]any, len(COLUMNS))
	for i, c := range COLUMNS {
		header[i] = c
	}
	err = sw.SetRow("A1", header)
	if err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		err = sw.SetRow(cell, r.row())
		if err != nil {
			return err
		}
	}
	err = sw.Flush()
	if err != nil {
		return err
	}

	// excelize only saves files with a spreadsheet extension
	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s_comments.tmp.xlsx", postID))
	err = f.SaveAs(tmp)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
