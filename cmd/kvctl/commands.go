package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	grpcserver "agendasmart/api/grpc"
	"agendasmart/pkg/config"
	"agendasmart/pkg/snapshot"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultTarget = "localhost:50051"

// kvClient is the part of the grpc client used by the commands.
type kvClient interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string, remote bool) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Sync(ctx context.Context, force bool) (bool, error)
	ForceSync(ctx context.Context) (bool, error)
	Diagnose(ctx context.Context) ([]string, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, document []byte) (map[string]any, error)
}

// dialer opens a client for the address, the returned func closes it.
type dialer func(addr string) (kvClient, func() error, error)

func dialGRPC(addr string) (kvClient, func() error, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return grpcserver.NewClient(conn), conn.Close, nil
}

// configuredTarget reads GRPC_TARGET through the service configuration.
func configuredTarget() string {
	cfg, err := config.Load()
	if err != nil || cfg.Server.GRPCTarget == "" {
		if target := os.Getenv("GRPC_TARGET"); target != "" {
			return target
		}
		return defaultTarget
	}
	return cfg.Server.GRPCTarget
}

type cli struct {
	dial    dialer
	addr    string
	timeout time.Duration
}

func newRootCmd(dial dialer) *cobra.Command {
	c := &cli{dial: dial}

	root := &cobra.Command{
		Use:           "kvctl",
		Short:         "Inspect and sync the agendasmart key value store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.addr, "addr", "", "gRPC address of the api (default GRPC_TARGET)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "timeout of every call")

	root.AddCommand(
		c.getCmd(),
		c.setCmd(),
		c.rmCmd(),
		c.keysCmd(),
		c.syncCmd(),
		c.diagnoseCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.routinesCmd(),
		c.widgetsCmd(),
		c.notifyCmd(),
	)
	return root
}

// run dials the api and calls fn with a bounded context.
func (c *cli) run(fn func(ctx context.Context, client kvClient) error) error {
	addr := c.addr
	if addr == "" {
		addr = configuredTarget()
	}

	client, closeFn, err := c.dial(addr)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return fn(ctx, client)
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				value, err := client.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), value)
			})
		},
	}
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a JSON value under key, anything that is not JSON is stored as a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parseValue(args[1])
			return c.run(func(ctx context.Context, client kvClient) error {
				if err := client.Set(ctx, args[0], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s saved\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove key from the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				removed, err := client.Remove(ctx, args[0], remote)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("couldn't remove %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also delete the remote row")
	return cmd
}

func (c *cli) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				keys, err := client.Keys(ctx)
				if err != nil {
					return err
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the remote table into the local store",
		Long:  "Pull the remote table into the local store. With --force the critical keys are reconciled first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				var ok bool
				var err error
				if force {
					ok, err = client.ForceSync(ctx)
				} else {
					ok, err = client.Sync(ctx, false)
				}
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("sync finished with failed keys")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "sync completed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reconcile the critical keys before syncing")
	return cmd
}

func (c *cli) diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Report local and remote consistency issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				issues, err := client.Diagnose(ctx)
				if err != nil {
					return err
				}
				if len(issues) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "healthy")
					return nil
				}
				for _, issue := range issues {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", issue)
				}
				return fmt.Errorf("%d issues found", len(issues))
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the routines document to file, or to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, client kvClient) error {
				doc, err := client.Export(ctx)
				if err != nil {
					return err
				}

				if len(args) == 0 {
					_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
					return err
				}

				if err := os.WriteFile(args[0], doc, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "routines exported to %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Apply a routines document, " + snapshot.FileName + " by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := snapshot.FileName
			if len(args) == 1 {
				path = args[0]
			}

			doc, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			return c.run(func(ctx context.Context, client kvClient) error {
				result, err := client.Import(ctx, doc)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

// parseValue decodes JSON and falls back to the raw string.
func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func printJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
