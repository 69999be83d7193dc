package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/hashmirror"
)

var (
	cache  hashmirror.Cache[any]
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:          "hmirror",
		Short:        "Read and write a mirrored redis hash",
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if logger != nil {
				defer func() { _ = logger.Sync() }()
			}
			if cache == nil {
				return nil
			}
			return cache.Close(cmd.Context())
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok, err := cache.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [json]",
		Short: "Store a JSON value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseValue(args[1])
			if err != nil {
				return err
			}
			if err := cache.Set(cmd.Context(), args[0], v); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Delete key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cache.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Report whether key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cache.Has(cmd.Context(), args[0]))
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "List the remote keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := cache.Keys(cmd.Context())
			if err != nil {
				return err
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	valuesCmd = &cobra.Command{
		Use:   "values",
		Short: "List the decodable remote values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vals, err := cache.Values(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), vals)
		},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Load the namespace and print the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cache.Lazy() {
				if err := cache.Load(cmd.Context()); err != nil {
					return err
				}
			}
			out := make(map[string]any, cache.Len())
			for k, v := range cache.All() {
				out[k] = v
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every key in the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared successfully")
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	// Assigned here rather than in the literal: openCache refers to rootCmd.
	rootCmd.PersistentPreRunE = openCache
	setupConnFlags(rootCmd)

	rootCmd.AddCommand(getCmd, setCmd, delCmd, hasCmd, keysCmd, valuesCmd, dumpCmd, clearCmd)
}

func openCache(cmd *cobra.Command, _ []string) error {
	if cmd == rootCmd || cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	if err := bindFlags(cmd); err != nil {
		return err
	}
	l, err := newLogger()
	if err != nil {
		return err
	}
	logger = l

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
		cmd.SetContext(ctx)
	}
	cache, err = hashmirror.Open[any](ctx, cacheOptions(l))
	return err
}

// parseValue accepts any JSON document. Bare words that are not JSON are stored
// as strings.
func parseValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		if json.Valid([]byte(`"` + s + `"`)) {
			return s, nil
		}
		return nil, fmt.Errorf("value: %w", err)
	}
	return v, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
