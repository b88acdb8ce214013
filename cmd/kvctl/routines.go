package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	grpcserver "agendasmart/api/grpc"
	"agendasmart/pkg/routine"

	"github.com/spf13/cobra"
)

// withStore runs fn over the routine helpers backed by the api.
func (c *cli) withStore(fn func(store routine.Store) error) error {
	return c.run(func(_ context.Context, client kvClient) error {
		return fn(grpcserver.NewRemoteStore(client, c.timeout, nil))
	})
}

func (c *cli) routinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routines",
		Short: "Manage the routines",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the routines, the active one is marked with *",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					active := routine.ActiveID(store)
					for _, r := range routine.List(store) {
						mark := " "
						if r.ID == active {
							mark = "*"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", mark, r.ID, r.Name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create an empty routine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					r, err := routine.Put(store, routine.New(args[0]))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), r.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "activate <id>",
			Short: "Select the active routine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					if _, ok := routine.Find(store, args[0]); !ok {
						return fmt.Errorf("routine %s: %w", args[0], routine.ErrNotFound)
					}
					if err := routine.Activate(store, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s activated\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "duplicate <id>",
			Short: "Copy a routine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					r, err := routine.Duplicate(store, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), r.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a routine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					if err := routine.Delete(store, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
					return nil
				})
			},
		},
		c.todayCmd(),
	)
	return cmd
}

func (c *cli) todayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the events of the active routine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				day = parsed
			}

			return c.withStore(func(store routine.Store) error {
				return printJSON(cmd.OutOrStdout(), routine.Today(store, day))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show as YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) widgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widgets",
		Short: "Manage the home screen widgets",
	}
	cmd.AddCommand(
		c.widgetListCmd(),
		c.widgetAddCmd(),
		&cobra.Command{
			Use:   "toggle <id>",
			Short: "Show or hide a widget",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					w, err := routine.ToggleWidget(store, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", w.ID, w.Enabled)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a widget",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					if err := routine.DeleteWidget(store, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every widget",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					if err := routine.ClearWidgets(store); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "widgets cleared")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "plate <id> <digit>",
			Short: "Set the plate digit of a pico y placa widget",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				digit, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("digit must be a number: %w", err)
				}
				return c.withStore(func(store routine.Store) error {
					w, err := routine.SetPlateDigit(store, args[0], digit)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), w)
				})
			},
		},
		c.widgetItemCmd(),
	)
	return cmd
}

func (c *cli) widgetListCmd() *cobra.Command {
	var home bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the widgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(store routine.Store) error {
				if home {
					return printJSON(cmd.OutOrStdout(), routine.HomeWidgets(store))
				}
				return printJSON(cmd.OutOrStdout(), routine.Widgets(store))
			})
		},
	}
	cmd.Flags().BoolVar(&home, "home", false, "only the widgets shown on the home screen")
	return cmd
}

func (c *cli) widgetAddCmd() *cobra.Command {
	var w routine.Widget

	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Create a widget of type market, notes, quotes, pico_placa or siata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w.Type = args[0]
			return c.withStore(func(store routine.Store) error {
				saved, err := routine.AddWidget(store, w)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&w.Title, "title", "", "title of the card (default the type)")
	cmd.Flags().IntVar(&w.Order, "order", 1, "position on the home screen, 1 to 4")
	cmd.Flags().BoolVar(&w.Enabled, "enabled", false, "show it on the home screen")
	return cmd
}

func (c *cli) widgetItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a market, notes or quotes widget",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <widget> <text>",
			Short: "Append an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					item, err := routine.AddWidgetItem(store, args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), item.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <widget> <item>",
			Short: "Flip the done flag of an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					w, err := routine.ToggleWidgetItem(store, args[0], args[1])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), w.Items)
				})
			},
		},
		&cobra.Command{
			Use:   "edit <widget> <item> <text>",
			Short: "Replace the text of an item",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					w, err := routine.EditWidgetItem(store, args[0], args[1], args[2])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), w.Items)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <widget> <item>",
			Short: "Delete an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					w, err := routine.DeleteWidgetItem(store, args[0], args[1])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), w.Items)
				})
			},
		},
	)
	return cmd
}

func (c *cli) notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Show or change the notification settings",
	}

	var beforeStart, beforeEnd int
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the minutes of notice before events start or end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(store routine.Store) error {
				settings := routine.NotificationSettings(store)
				if cmd.Flags().Changed("before-start") {
					settings.BeforeStart = beforeStart
				}
				if cmd.Flags().Changed("before-end") {
					settings.BeforeEnd = beforeEnd
				}
				if err := routine.SetNotificationSettings(store, settings); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), routine.NotificationSettings(store))
			})
		},
	}
	set.Flags().IntVar(&beforeStart, "before-start", routine.DefaultBeforeStart, "minutes of notice before an event starts")
	set.Flags().IntVar(&beforeEnd, "before-end", routine.DefaultBeforeEnd, "minutes of notice before an event ends")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the notification settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(func(store routine.Store) error {
					return printJSON(cmd.OutOrStdout(), routine.NotificationSettings(store))
				})
			},
		},
		set,
	)
	return cmd
}
