package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect or change storage values directly",
	Long: `Inspect or change storage values without the model.

Subcommands:
  list         - Show every key with its value or default
  get <key>    - Show one value
  set <k> <v>  - Validate, normalize and store a value`,
	RunE: runStorageList,
}

var storageListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every key with its value or default",
	RunE:  runStorageList,
}

var storageGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one value",
	Args:  cobra.ExactArgs(1),
	RunE:  runStorageGet,
}

var storageSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Validate, normalize and store a value",
	Long: `Validate, normalize and store a value.

Flags must come before the key. Everything after the key is taken as
positional, so negative numbers work as values:
  storage-chat storage set calculation -5.7`,
	Args: cobra.ExactArgs(2),
	RunE: runStorageSet,
}

func init() {
	// Stop flag parsing at the key so a value like -5.7 is not read as a flag.
	storageSetCmd.Flags().SetInterspersed(false)

	storageCmd.AddCommand(storageListCmd, storageGetCmd, storageSetCmd)
}

func runStorageList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return printStorage(ctx, cmd.OutOrStdout(), schemax.Default, store)
}

func runStorageGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	value, _, err := readValue(ctx, schemax.Default, store, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runStorageSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	value, err := schemax.Default.Normalize(args[0], args[1])
	if err != nil {
		return err
	}
	if err := store.Set(ctx, args[0], value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
	return nil
}

// readValue returns the stored value or the key's default.
func readValue(ctx context.Context, registry *schemax.Registry, store contractx.KeyValueStore, key string) (string, bool, error) {
	entry, ok := registry.Lookup(key)
	if !ok {
		return "", false, fmt.Errorf("%w: unknown key %q", contractx.ErrSchemaViolation, key)
	}
	value, found, err := store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !found {
		return entry.Default, false, nil
	}
	return value, true, nil
}

func printStorage(ctx context.Context, w io.Writer, registry *schemax.Registry, store contractx.KeyValueStore) error {
	for _, key := range registry.Keys() {
		value, found, err := readValue(ctx, registry, store, key)
		if err != nil {
			return err
		}
		suffix := ""
		if !found {
			suffix = " " + renderInfo("(default)")
		}
		fmt.Fprintf(w, "%-12s %q%s\n", key, value, suffix)
	}
	return nil
}
