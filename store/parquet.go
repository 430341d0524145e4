package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/osako110/Recommend/core"
)

// 因子表的列式编码：一列 ID（VARCHAR）加 f0..f{F-1} 共 F 列 DOUBLE，
// 借助 DuckDB 内置的 parquet 读写。每次调用使用独立的内存库。

func openDuckDB(ctx context.Context) (*sql.DB, *sql.Conn, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, nil, fmt.Errorf("open duckdb: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("duckdb conn: %w", err)
	}
	return db, conn, nil
}

func factorColumn(j int) string { return fmt.Sprintf("f%d", j) }

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// writeFactorParquet 把 ids 与行主序 data 写成 parquet 文件。
func writeFactorParquet(ctx context.Context, path, idColumn string, ids []string, dim int, data []float64) error {
	if len(data) != len(ids)*dim {
		return fmt.Errorf("write %s: %d values for %d rows of dimension %d", path, len(data), len(ids), dim)
	}
	db, conn, err := openDuckDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	cols := make([]string, 0, dim+1)
	cols = append(cols, quoteIdent(idColumn)+" VARCHAR NOT NULL")
	for j := 0; j < dim; j++ {
		cols = append(cols, quoteIdent(factorColumn(j))+" DOUBLE NOT NULL")
	}
	if _, err := conn.ExecContext(ctx, "CREATE TEMP TABLE factors ("+strings.Join(cols, ", ")+")"); err != nil {
		return fmt.Errorf("create factor table: %w", err)
	}

	if len(ids) > 0 {
		if err := insertFactors(ctx, conn, ids, dim, data); err != nil {
			return err
		}
	}

	copySQL := `COPY factors TO ? (FORMAT PARQUET, COMPRESSION 'ZSTD')`
	if _, err := conn.ExecContext(ctx, copySQL, path); err != nil {
		return fmt.Errorf("export parquet %s: %w", path, err)
	}
	return nil
}

func insertFactors(ctx context.Context, conn *sql.Conn, ids []string, dim int, data []float64) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", dim+1), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO factors VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, dim+1)
	for i, id := range ids {
		args[0] = id
		row := data[i*dim : (i+1)*dim]
		for j, v := range row {
			args[j+1] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// readFactorParquet 读取 writeFactorParquet 写出的文件。
// 列名或类型不符、出现 NULL、ID 重复时返回 INVALID_INPUT 错误。
func readFactorParquet(ctx context.Context, path, idColumn string) (*core.FactorTable, error) {
	db, conn, err := openDuckDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT * FROM read_parquet("+quoteLiteral(path)+")")
	if err != nil {
		return nil, malformed(path, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, malformed(path, err)
	}
	if len(names) < 2 || names[0] != idColumn {
		return nil, malformed(path, fmt.Errorf("columns %v: want %s followed by factor columns", names, idColumn))
	}
	dim := len(names) - 1
	for j := 0; j < dim; j++ {
		if names[j+1] != factorColumn(j) {
			return nil, malformed(path, fmt.Errorf("column %d is %q, want %q", j+1, names[j+1], factorColumn(j)))
		}
	}

	var (
		ids  []string
		data []float64
		id   string
		vals = make([]float64, dim)
		dest = make([]any, dim+1)
	)
	dest[0] = &id
	for j := range vals {
		dest[j+1] = &vals[j]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, malformed(path, err)
		}
		ids = append(ids, id)
		data = append(data, vals...)
	}
	if err := rows.Err(); err != nil {
		return nil, malformed(path, err)
	}

	table, err := core.NewFactorTable(ids, dim, data)
	if err != nil {
		return nil, malformed(path, err)
	}
	return table, nil
}

func malformed(path string, err error) error {
	return core.WrapDomainError(core.ModuleFactor, core.ErrorCodeInvalidInput, "factor: malformed artifact "+path, err)
}
