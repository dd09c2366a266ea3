package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"

	"raffle/api"
	"raffle/domain/entities"

	"github.com/pterm/pterm"
)

// Command is one client subcommand
type Command struct {
	Handler     CommandHandler
	Description string
	Usage       string
}

// CommandHandler runs a subcommand against the API
type CommandHandler func(ctx context.Context, c *CLI, args []string) error

// CLI dispatches client subcommands
type CLI struct {
	api      *APIClient
	out      io.Writer
	commands map[string]Command
}

// NewCLI creates a CLI for the API at baseURL. An empty baseURL reads RAFFLE_API.
func NewCLI(baseURL string, out io.Writer) *CLI {
	if baseURL == "" {
		baseURL = os.Getenv("RAFFLE_API")
	}
	c := &CLI{
		api: NewAPIClient(baseURL),
		out: out,
	}
	c.initializeCommands()
	return c
}

func (c *CLI) initializeCommands() {
	c.commands = map[string]Command{
		"deploy": {
			Handler:     handleDeploy,
			Description: "Deploy a raffle managed by the caller",
			Usage:       "deploy <caller>",
		},
		"enter": {
			Handler:     handleEnter,
			Description: "Enter a raffle with a stake",
			Usage:       "enter <raffle_id> <caller> <value> [unit]",
		},
		"pick": {
			Handler:     handlePick,
			Description: "Pick the winner of the current round",
			Usage:       "pick <raffle_id> <caller>",
		},
		"players": {
			Handler:     handlePlayers,
			Description: "List the entrants of the current round",
			Usage:       "players <raffle_id>",
		},
		"raffle": {
			Handler:     handleRaffle,
			Description: "Show a raffle",
			Usage:       "raffle <raffle_id>",
		},
		"winners": {
			Handler:     handleWinners,
			Description: "Show past payouts of a raffle",
			Usage:       "winners <raffle_id>",
		},
		"fund": {
			Handler:     handleFund,
			Description: "Set an account balance through the faucet",
			Usage:       "fund <address> <value> [unit] [--rejects-payments]",
		},
		"balance": {
			Handler:     handleBalance,
			Description: "Show an account balance",
			Usage:       "balance <address>",
		},
		"verify": {
			Handler:     handleVerify,
			Description: "Verify the block chain",
			Usage:       "verify",
		},
	}
}

// Run executes the subcommand named by args[0]
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" {
		c.printHelp()
		return nil
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.Handler(ctx, c, args[1:])
}

func (c *CLI) printHelp() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-50s %s\n", c.commands[name].Usage, c.commands[name].Description)
	}
}

func usage(cmd string) error {
	return fmt.Errorf("usage: %s", cmd)
}

func handleDeploy(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 1 {
		return usage("deploy <caller>")
	}

	var raffle api.RaffleResponse
	if err := c.api.Do(ctx, http.MethodPost, "/raffles", args[0], nil, &raffle); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deployed raffle %d (manager %s)\n", raffle.ID, raffle.Manager)
	return nil
}

func handleEnter(ctx context.Context, c *CLI, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("enter <raffle_id> <caller> <value> [unit]")
	}
	unit := entities.UnitEther
	if len(args) == 4 {
		unit = entities.Unit(args[3])
	}

	var result api.EnterResponse
	req := api.EnterRequest{Value: args[2], Unit: unit}
	if err := c.api.Do(ctx, http.MethodPost, "/raffles/"+args[0]+"/enter", args[1], req, &result); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Entered at position %d, pool is now %s ether with %d entries\n", result.Position, result.Pool, result.PlayerCount)
	return nil
}

func handlePick(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 2 {
		return usage("pick <raffle_id> <caller>")
	}

	var draw api.DrawResponse
	if err := c.api.Do(ctx, http.MethodPost, "/raffles/"+args[0]+"/pick-winner", args[1], nil, &draw); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Round %d winner: %s (index %d of %d) received %s ether\n",
		draw.Round, draw.Winner, draw.WinningIndex, draw.EntrantCount, draw.Amount)
	return nil
}

func handlePlayers(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 1 {
		return usage("players <raffle_id>")
	}

	var players []entities.Address
	if err := c.api.Do(ctx, http.MethodGet, "/raffles/"+args[0]+"/players", "", nil, &players); err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Fprintln(c.out, "No entrants")
		return nil
	}
	data := pterm.TableData{{"#", "Entrant"}}
	for i, p := range players {
		data = append(data, []string{strconv.Itoa(i), p.String()})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(c.out).WithData(data).Render()
}

func handleRaffle(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 1 {
		return usage("raffle <raffle_id>")
	}

	var raffle api.RaffleResponse
	if err := c.api.Do(ctx, http.MethodGet, "/raffles/"+args[0], "", nil, &raffle); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Raffle %d\n  manager: %s\n  round:   %d\n  pool:    %s ether\n  players: %d\n",
		raffle.ID, raffle.Manager, raffle.Round, raffle.Pool, len(raffle.Players))
	return nil
}

func handleWinners(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 1 {
		return usage("winners <raffle_id>")
	}

	var winners []api.WinnerResponse
	if err := c.api.Do(ctx, http.MethodGet, "/raffles/"+args[0]+"/winners", "", nil, &winners); err != nil {
		return err
	}
	if len(winners) == 0 {
		fmt.Fprintln(c.out, "No payouts yet")
		return nil
	}
	data := pterm.TableData{{"Round", "Winner", "Amount (ether)", "Index", "Entrants"}}
	for _, w := range winners {
		amount, err := entities.ParseAmount(w.AmountWei, entities.UnitWei)
		if err != nil {
			return err
		}
		data = append(data, []string{
			strconv.FormatInt(w.Round, 10),
			w.Winner.String(),
			entities.FormatEther(amount),
			strconv.Itoa(w.WinningIndex),
			strconv.Itoa(w.EntrantCount),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(c.out).WithData(data).Render()
}

func handleFund(ctx context.Context, c *CLI, args []string) error {
	rejects := false
	var positional []string
	for _, arg := range args {
		if arg == "--rejects-payments" {
			rejects = true
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) < 2 || len(positional) > 3 {
		return usage("fund <address> <value> [unit] [--rejects-payments]")
	}
	unit := entities.UnitEther
	if len(positional) == 3 {
		unit = entities.Unit(positional[2])
	}

	var account api.AccountResponse
	req := api.FundRequest{
		Address:         positional[0],
		Balance:         positional[1],
		Unit:            unit,
		RejectsPayments: rejects,
	}
	if err := c.api.Do(ctx, http.MethodPost, "/accounts", "", req, &account); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s balance: %s ether\n", account.Address, account.Balance)
	return nil
}

func handleBalance(ctx context.Context, c *CLI, args []string) error {
	if len(args) != 1 {
		return usage("balance <address>")
	}

	var account api.AccountResponse
	if err := c.api.Do(ctx, http.MethodGet, "/accounts/"+args[0], "", nil, &account); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s balance: %s ether\n", account.Address, account.Balance)
	return nil
}

func handleVerify(ctx context.Context, c *CLI, args []string) error {
	var status api.ChainResponse
	if err := c.api.Do(ctx, http.MethodGet, "/chain/verify", "", nil, &status); err != nil {
		return err
	}
	if !status.Valid {
		return fmt.Errorf("chain invalid at height %d: %s", status.Height, status.Error)
	}
	fmt.Fprintf(c.out, "Chain valid, height %d, head %s\n", status.Height, status.HeadHash)
	return nil
}
