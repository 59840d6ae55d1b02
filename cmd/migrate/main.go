package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lutefd/pokerlog/internal/config"
)

func main() {
	down := len(os.Args) > 1 && os.Args[1] == "down"

	cfg, err := config.LoadMigrate()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	suffix := ".up.sql"
	if down {
		suffix = ".down.sql"
	}
	files, err := listMigrations(cfg.Dir, suffix)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if down {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("read migration %s: %v", file, err)
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			log.Fatalf("apply migration %s: %v", file, err)
		}
		fmt.Printf("applied %s\n", file)
	}
}

func listMigrations(root, suffix string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
