// Package seed loads the medicine catalog from a CSV export.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var columns = []string{
	"medicine_name", "medicine_name_bg", "medicine_group", "manufacturer",
	"sales_measure", "atc_code", "opiate", "nhif_code",
}

// LoadMedicines ingests the CSV at path into medicine_detail, skipping
// entries where either name is already in the catalog under either column. It returns the number of
// rows inserted.
func LoadMedicines(ctx context.Context, db *sqlx.DB, path string, log *zap.Logger) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open medicine catalog: %w", err)
	}
	defer file.Close()
	return load(ctx, db, file, log)
}

func load(ctx context.Context, db *sqlx.DB, r io.Reader, log *zap.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read medicine header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	_, hasName := col["medicine_name"]
	_, hasNameBG := col["medicine_name_bg"]
	if !hasName && !hasNameBG {
		return 0, errors.New("medicine catalog needs a medicine_name or medicine_name_bg column")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin medicine seed: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.PreparexContext(ctx, tx.Rebind(`
		SELECT COUNT(*) FROM medicine_detail
		WHERE medicine_name IN (?, ?) OR medicine_name_bg IN (?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare medicine lookup: %w", err)
	}
	defer exists.Close()

	insert, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO medicine_detail
			(medicine_name, medicine_name_bg, medicine_group, manufacturer, sales_measure, atc_code, opiate, nhif_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare medicine insert: %w", err)
	}
	defer insert.Close()

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn("unable to read medicine row", zap.Int("line", line), zap.Error(err))
			continue
		}

		values := make(map[string]*string, len(columns))
		for _, name := range columns {
			if i, ok := col[name]; ok && i < len(record) {
				if v := strings.TrimSpace(record[i]); v != "" {
					values[name] = &v
				}
			}
		}
		name, nameBG := values["medicine_name"], values["medicine_name_bg"]
		if name == nil && nameBG == nil {
			continue
		}
		key := name
		if key == nil {
			key = nameBG
		}

		var n int
		if err := exists.GetContext(ctx, &n, name, nameBG, name, nameBG); err != nil {
			return rows, fmt.Errorf("look up medicine %s: %w", *key, err)
		}
		if n > 0 {
			continue
		}

		if _, err := insert.ExecContext(ctx, name, nameBG, values["medicine_group"], values["manufacturer"],
			values["sales_measure"], values["atc_code"], flag(values["opiate"]), values["nhif_code"]); err != nil {
			return rows, fmt.Errorf("insert medicine %s: %w", *key, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit medicine seed: %w", err)
	}
	log.Info("seeded medicine catalog", zap.Int("rows", rows))
	return rows, nil
}

// flag reads the opiate column; anything unparseable counts as false.
func flag(v *string) bool {
	if v == nil {
		return false
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return *v == "yes" || *v == "да"
	}
	return b
}
