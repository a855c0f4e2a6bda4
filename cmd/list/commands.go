package list

import (
	"fmt"
	"strconv"

	"github.com/cesto-dev/cesto/lib/cache"
	"github.com/cesto-dev/cesto/rpc/common"
	"github.com/spf13/cobra"
)

// printOutcome reports the cluster outcome of an offline-first write.
func printOutcome(action string, reply *common.Message) {
	switch reply.Status {
	case common.StatusOK:
		fmt.Printf("%s successfully\n", action)
	case common.StatusTimeout:
		fmt.Printf("cluster unreachable - %s locally (run 'cesto list commit' later)\n", action)
	default:
		fmt.Printf("error: %s\n", reply.Err)
	}
}

func parseQuantities(currentArg, targetArg string) (int, int, error) {
	current, err := strconv.Atoi(currentArg)
	if err != nil {
		return 0, 0, fmt.Errorf("current must be a number: %w", err)
	}
	target, err := strconv.Atoi(targetArg)
	if err != nil {
		return 0, 0, fmt.Errorf("target must be a number: %w", err)
	}
	return current, target, nil
}

func printLocalList(list cache.List) {
	state := "unsynced"
	if list.Synced {
		state = "synced"
	}
	fmt.Printf("local: %s (%s)\n", list.ID, state)
	for _, it := range list.Items {
		printItem(it.Name, it.Current, it.Target, it.Acquired, !it.Synced)
	}
}

func printServerList(reply *common.Message) {
	switch reply.Status {
	case common.StatusOK:
		if reply.List == nil {
			fmt.Println("server: no data")
			return
		}
		fmt.Printf("server: %s\n", reply.List.ID)
		for _, it := range reply.List.Items {
			printItem(it.Name, it.Current, it.Target, it.Acquired, false)
		}
	case common.StatusTimeout:
		fmt.Println("server: unreachable")
	default:
		fmt.Printf("server: error: %s\n", reply.Err)
	}
}

func printItem(name string, current, target int, acquired, unsynced bool) {
	marker := " "
	if acquired {
		marker = "x"
	}
	suffix := ""
	if unsynced {
		suffix = " (unsynced)"
	}
	fmt.Printf("  [%s] %s %d/%d%s\n", marker, name, current, target, suffix)
}

var (
	createCmd = &cobra.Command{
		Use:   "create [list]",
		Short: "Create a shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := rpcClient.CreateList(args[0])
			if err != nil {
				return err
			}
			printOutcome("created", reply)
			return nil
		},
	}
	addItemCmd = &cobra.Command{
		Use:   "add-item [list] [item] [current] [target]",
		Short: "Add an item to a list",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, target, err := parseQuantities(args[2], args[3])
			if err != nil {
				return err
			}
			reply, err := rpcClient.CreateItem(args[0], args[1], current, target)
			if err != nil {
				return err
			}
			printOutcome("added", reply)
			return nil
		},
	}
	updateItemCmd = &cobra.Command{
		Use:   "update-item [list] [item] [current] [target]",
		Short: "Update the quantities of an item",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, target, err := parseQuantities(args[2], args[3])
			if err != nil {
				return err
			}
			reply, err := rpcClient.UpdateItem(args[0], args[1], current, target)
			if err != nil {
				return err
			}
			printOutcome("updated", reply)
			return nil
		},
	}
	deleteItemCmd = &cobra.Command{
		Use:   "delete-item [list] [item]",
		Short: "Remove an item from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := rpcClient.DeleteItem(args[0], args[1])
			if err != nil {
				return err
			}
			printOutcome("deleted", reply)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info [list]",
		Short: "Show the local and the server view of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, ok, reply, err := rpcClient.GetInfo(args[0])
			if err != nil {
				return err
			}
			if ok {
				printLocalList(local)
			} else {
				fmt.Println("local: not cached")
			}
			printServerList(reply)
			return nil
		},
	}
	allCmd = &cobra.Command{
		Use:   "all",
		Short: "Show all list ids known to the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply := rpcClient.ListAll()
			switch reply.Status {
			case common.StatusOK:
				if len(reply.Lists) == 0 {
					fmt.Println("no lists")
					return nil
				}
				for _, id := range reply.Lists {
					fmt.Println(id)
				}
			case common.StatusTimeout:
				fmt.Println("cluster unreachable")
			default:
				fmt.Printf("error: %s\n", reply.Err)
			}
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Probe the broker connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply := rpcClient.Ping()
			if reply.Status == common.StatusPong {
				fmt.Println("pong")
			} else {
				fmt.Println("no answer")
			}
			return nil
		},
	}
	commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Push all unsynced local changes to the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := rpcClient.Commit()
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Mirror the cluster state into the local cache (server wins)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Sync(); err != nil {
				return err
			}
			fmt.Println("synced")
			return nil
		},
	}
)
