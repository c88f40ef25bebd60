package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"setsearch/internal/config"
	"setsearch/internal/index"
	"setsearch/internal/source"
)

// runShell builds the index for src and answers queries read from in until an
// empty line or end of input. When src has no path, the path is read from in first.
func runShell(ctx context.Context, in io.Reader, out io.Writer, registry *index.Registry, src config.SourceConfig, tel *telemetry) error {
	lines := source.FromReader(in)

	if src.Name == "" {
		src.Name = config.DefaultSourceName
	}
	if src.Path == "" {
		fmt.Fprint(out, "Enter a filename: ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			return lines.Err()
		}
		src.Path = strings.TrimSpace(lines.Text())
	}

	fmt.Fprintln(out, "Stand by while building index...")
	stats, err := registry.Build(src.Name, src.Path)
	if err != nil {
		return fmt.Errorf("build index %q: %w", src.Name, err)
	}
	tel.recordBuild(ctx, stats)
	fmt.Fprintf(out, "Indexed %d pages containing %d unique terms\n", stats.Documents, stats.Terms)

	for {
		fmt.Fprint(out, "\nEnter query sentence (press enter to quit): ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			break
		}
		query := strings.TrimRight(lines.Text(), "\r")
		if query == "" {
			break
		}

		start := time.Now()
		matches, err := registry.Search(src.Name, query)
		if err != nil {
			return err
		}
		tel.recordSearch(ctx, src.Name, matches.Len(), time.Since(start))

		fmt.Fprintf(out, "Found %d matching pages\n", matches.Len())
		for _, id := range matches.IDs() {
			fmt.Fprintln(out, id)
		}
	}

	fmt.Fprintln(out, "Thank you for searching!")
	return lines.Err()
}
