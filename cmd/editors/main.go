package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/anadolic/inkwell/internal/auth"
	"github.com/anadolic/inkwell/internal/config"
	"github.com/anadolic/inkwell/internal/db"

	log "github.com/sirupsen/logrus"
)

// editors is a provisioning tool for the editors allow list:
//
//	editors -env development list
//	editors -env development add <user-id>
//	editors -env development remove <user-id>
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.SetLevel(log.WarnLevel)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Printf("load config: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: false,
	})
	if err != nil {
		fmt.Printf("new db pool: %s\n", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	editors := auth.NewEditorsStore(dbPool)

	switch cmd := flag.Arg(0); cmd {
	case "list":
		editorIDs, err := editors.ListEditors(ctx)
		if err != nil {
			fmt.Printf("list editors: %s\n", err)
			os.Exit(1)
		}
		if len(editorIDs) == 0 {
			fmt.Println("no editors")
			return
		}
		for _, id := range editorIDs {
			fmt.Println(id)
		}
	case "add":
		userID := flag.Arg(1)
		if userID == "" {
			fmt.Println("usage: editors add <user-id>")
			os.Exit(1)
		}
		if err := editors.AddEditor(ctx, userID); err != nil {
			fmt.Printf("add editor: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("added: %s\n", userID)
	case "remove":
		userID := flag.Arg(1)
		if userID == "" {
			fmt.Println("usage: editors remove <user-id>")
			os.Exit(1)
		}
		if err := editors.RemoveEditor(ctx, userID); err != nil {
			fmt.Printf("remove editor: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("removed: %s\n", userID)
	default:
		fmt.Println("usage: editors [list | add <user-id> | remove <user-id>]")
		os.Exit(1)
	}
}
