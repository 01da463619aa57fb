package bank

import (
	"bytes"
	"log/slog"

	"github.com/starford/glossaryqf/internal/checksum"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/storage"
)

// Sync walks the workspace and brings the bank up to date:
//   - new or changed documents are imported, replacing their old questions
//   - sources whose document is gone are deleted
//
// A malformed document is logged and left at its previous contents.
func Sync(db *DB, store storage.Provider, im *glossary.Importer, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.SourceChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksum.Equal(checksums[m.Path], m.Checksum) {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		n, err := ImportFile(db, im, m.Path, data)
		if err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: imported", slog.String("path", m.Path), slog.Int("questions", n))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteSource(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// ImportFile reads data as a glossary document and replaces the questions
// stored for path. It returns the number of questions stored.
func ImportFile(db QuestionBank, im *glossary.Importer, path string, data []byte) (int, error) {
	questions, err := im.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	stored, err := db.ReplaceSource(path, checksum.Sum(data), questions)
	if err != nil {
		return 0, err
	}
	return len(stored), nil
}

// importIfChanged imports data unless the bank already holds a document with
// the same checksum for path. Writes made through the service reach the
// watcher as Create events and are skipped here.
func importIfChanged(db *DB, im *glossary.Importer, path string, data []byte) (n int, changed bool, err error) {
	stored, err := db.SourceChecksum(path)
	if err != nil {
		return 0, false, err
	}
	if stored != "" && checksum.Equal(stored, checksum.Sum(data)) {
		return 0, false, nil
	}
	n, err = ImportFile(db, im, path, data)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
