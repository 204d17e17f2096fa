// Command seedhsn converts the GST HSN/SAC master workbook into a SQL seed
// file for the hsn_codes table.
//
// Usage: seedhsn -in hsn_master.xlsx -out db/seeds/hsn_codes.sql
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"finsync/internal/hsn"
	"finsync/internal/port"
)

const batchSize = 500

func main() {
	in := flag.String("in", "hsn_master.xlsx", "HSN/SAC master workbook")
	out := flag.String("out", "db/seeds/hsn_codes.sql", "output SQL file")
	effective := flag.String("effective-from", "2017-07-01", "effective_from date for every row")
	flag.Parse()

	if err := run(*in, *out, *effective); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath, effectiveFrom string) error {
	src, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer src.Close()

	entries, err := hsn.ReadMaster(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeSeed(w, entries, effectiveFrom); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	log.Printf("seedhsn: wrote %d entries (%d batches) to %s",
		len(entries), (len(entries)+batchSize-1)/batchSize, outPath)
	return nil
}

func writeSeed(w io.Writer, entries []port.HSNEntry, effectiveFrom string) error {
	header := fmt.Sprintf("-- HSN/SAC code seed data generated from the master workbook.\n"+
		"-- %d entries in batches of %d.\nBEGIN;\n\n", len(entries), batchSize)
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		if _, err := io.WriteString(w, insertBatch(entries[i:end], effectiveFrom)); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	if _, err := io.WriteString(w, "\nCOMMIT;\n"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

func insertBatch(batch []port.HSNEntry, effectiveFrom string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO hsn_codes (code, description, gst_rate, effective_from) VALUES\n")
	for i, e := range batch {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s', %.2f, '%s')",
			escapeSQL(e.Code), escapeSQL(e.Description), e.GSTRate, escapeSQL(effectiveFrom))
	}
	b.WriteString("\nON CONFLICT (code, gst_rate, effective_from) DO NOTHING;\n")
	return b.String()
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
