// Command gocurhat is the native maintenance CLI for the persisted state:
// inspect, export, and reset against the file-backed stores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/temancurhat/gocurhat/internal/config"
	"github.com/temancurhat/gocurhat/internal/store"
	"github.com/temancurhat/gocurhat/pkg/hydrate"
)

var log = logrus.New()

func main() {
	cfg := config.FromEnv()

	var blobDSN, snapshotPath string

	root := &cobra.Command{
		Use:   "gocurhat",
		Short: "Inspect and maintain the persisted GoCurhat state",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if blobDSN != "" {
				cfg.BlobDSN = blobDSN
			}
			if snapshotPath != "" {
				cfg.SnapshotPath = snapshotPath
			}
		},
	}
	root.PersistentFlags().StringVar(&blobDSN, "blobs", "", "blob store DSN (default from env)")
	root.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "snapshot file path (default from env)")

	newEngine := func() (*hydrate.Engine, *store.SQLiteBlobStore) {
		blobs := store.NewSQLiteBlobStore(cfg.BlobDSN)
		snaps := store.NewFileSnapshotStore(cfg.SnapshotPath, cfg.SnapshotQuota)
		return hydrate.NewEngine(blobs, snaps, log), blobs
	}

	root.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Summarize the persisted state",
		Run: func(cmd *cobra.Command, args []string) {
			engine, blobs := newEngine()
			defer blobs.Close()
			st := engine.Load(context.Background())

			if st.User == nil {
				fmt.Println("no user profile (fresh state)")
				return
			}
			fmt.Printf("user: %s (%s, %d)\n", st.User.Name, st.User.Gender, st.User.Age)
			fmt.Printf("stories: %d\n", len(st.User.Stories))
			fmt.Printf("contacts: %d\n", len(st.Contacts))
			for _, c := range st.Contacts {
				fmt.Printf("  %s [%s] %d messages, %d unread\n", c.Name, c.Role, len(c.Messages), c.UnreadCount)
			}
			fmt.Printf("image creator: %d messages, %d generated\n",
				len(st.ImageCreator.Messages), len(st.ImageCreator.GeneratedImages))
			fmt.Printf("remove bg: %d messages\n", len(st.RemoveBg.Messages))
			fmt.Printf("creator tools: %d messages (mode %s)\n",
				len(st.CreatorTools.Messages), st.CreatorTools.Settings.Mode)
			fmt.Printf("video gen: %d messages\n", len(st.VideoGen.Messages))

			keys, err := blobs.Keys(context.Background())
			if err != nil {
				log.WithError(err).Warn("failed to list blobs")
				return
			}
			fmt.Printf("blobs: %d\n", len(keys))
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the fully hydrated state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, blobs := newEngine()
			defer blobs.Close()
			st := engine.Load(context.Background())
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode state: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "blobs",
		Short: "List stored blob keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, blobs := newEngine()
			defer blobs.Close()
			keys, err := blobs.Keys(context.Background())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete all persisted data",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, blobs := newEngine()
			defer blobs.Close()
			if _, err := engine.Reset(context.Background()); err != nil {
				return err
			}
			fmt.Println("state cleared")
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
