package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quality-measures/accelerator/internal/component"
	"github.com/quality-measures/accelerator/internal/store"
)

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "Maintain the content-addressed component library",
}

func openLibrary() (*component.Library, *store.LibraryStore, error) {
	libStore, err := store.NewLibraryStore(cfg.Store.DatabasePath, sugar)
	if err != nil {
		return nil, nil, fmt.Errorf("opening library store: %w", err)
	}

	lib, err := component.NewLibrary()
	if err != nil {
		libStore.Close()
		return nil, nil, fmt.Errorf("building in-memory library: %w", err)
	}

	existing, err := libStore.All()
	if err != nil {
		libStore.Close()
		return nil, nil, fmt.Errorf("loading stored components: %w", err)
	}
	if err := lib.LoadAll(existing); err != nil {
		libStore.Close()
		return nil, nil, fmt.Errorf("rebuilding reference graph: %w", err)
	}

	return lib, libStore, nil
}

var libListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every component in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, libStore, err := openLibrary()
		if err != nil {
			return err
		}
		defer libStore.Close()

		for _, c := range lib.All() {
			v := c.Latest()
			fmt.Printf("%-24s %-10s v%-3d %-10s %s\n", c.ID, c.Category, v.Number, v.Status, c.Name)
		}
		return nil
	},
}

var libApproveCmd = &cobra.Command{
	Use:   "approve <componentId> <approvedBy>",
	Short: "Approve a component's latest draft version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, libStore, err := openLibrary()
		if err != nil {
			return err
		}
		defer libStore.Close()

		if err := lib.Approve(args[0], args[1], time.Now().UTC()); err != nil {
			return err
		}
		c, _ := lib.Get(args[0])
		if err := libStore.Save(c); err != nil {
			return err
		}
		fmt.Printf("%s approved\n", args[0])
		return nil
	},
}

var libArchiveCmd = &cobra.Command{
	Use:   "archive <componentId> <archivedBy>",
	Short: "Archive a component's latest version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, libStore, err := openLibrary()
		if err != nil {
			return err
		}
		defer libStore.Close()

		if err := lib.Archive(args[0], args[1], time.Now().UTC()); err != nil {
			return err
		}
		c, _ := lib.Get(args[0])
		if err := libStore.Save(c); err != nil {
			return err
		}
		fmt.Printf("%s archived\n", args[0])
		return nil
	},
}

func init() {
	libCmd.AddCommand(libListCmd)
	libCmd.AddCommand(libApproveCmd)
	libCmd.AddCommand(libArchiveCmd)
}
