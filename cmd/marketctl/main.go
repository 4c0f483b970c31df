package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"royaltymarket/config"
	"royaltymarket/core/types"
	"royaltymarket/ledger"
	"royaltymarket/native/market"
	"royaltymarket/native/split"
	"royaltymarket/observability/logging"
	"royaltymarket/storage"
)

const usage = `marketctl manages a local royalty marketplace instance.

Usage:
  marketctl [-config path] <command> [flags]

Commands:
  init        initialize the contract (registers the asset, runs the creation call)
  fund        credit an account balance
  status      print the contract global record and current round
  slot        print the local record for an address
  advance     advance the round counter
  split-plan  print the collaborator split allocation for a total
`

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := logging.Setup("marketctl", os.Getenv("MARKET_ENV"))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fatal(logger, "load config", err)
	}

	if args[0] == "split-plan" {
		if err := runSplitPlan(cfg, args[1:]); err != nil {
			fatal(logger, "split-plan", err)
		}
		return
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		fatal(logger, "open database", err)
	}
	defer db.Close()

	contractAddr, err := config.ParseAddress(cfg.ContractAddress)
	if err != nil {
		fatal(logger, "contract address", err)
	}
	feeSink, err := config.ParseAddress(cfg.FeeSink)
	if err != nil {
		fatal(logger, "fee sink", err)
	}
	host, err := ledger.New(db, ledger.Config{
		ContractAddress: contractAddr,
		FeeSink:         feeSink,
		MinimumFee:      cfg.MinimumFee,
	}, logger)
	if err != nil {
		fatal(logger, "open ledger", err)
	}

	switch args[0] {
	case "init":
		err = runInit(host, cfg, contractAddr, args[1:])
	case "fund":
		err = runFund(host, args[1:])
	case "status":
		err = runStatus(host)
	case "slot":
		err = runSlot(host, args[1:])
	case "advance":
		err = runAdvance(host, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(logger, args[0], err)
	}
}

func fatal(logger *slog.Logger, context string, err error) {
	logger.Error(context, "error", err)
	os.Exit(1)
}

func runInit(host *ledger.Ledger, cfg *config.Config, contractAddr [20]byte, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	creatorFlag := fs.String("creator", "", "creator address (0x hex)")
	assetFlag := fs.Uint64("asset", 0, "asset id to manage")
	royaltyFlag := fs.Uint64("royalty", cfg.RoyaltyFeePerMille, "royalty fee in per mille")
	waitFlag := fs.Uint64("wait", cfg.WaitingRounds, "waiting time in rounds")
	balanceFlag := fs.Uint64("balance", 0, "initial creator balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creator, err := config.ParseAddress(*creatorFlag)
	if err != nil {
		return err
	}
	if *assetFlag == 0 {
		return fmt.Errorf("init: -asset is required")
	}
	if err := host.RegisterAsset(*assetFlag, &types.AssetParams{
		Creator:  creator,
		Total:    1,
		Decimals: 0,
		Clawback: contractAddr,
	}); err != nil {
		return err
	}
	if err := host.SeedAccount(creator, *balanceFlag, map[uint64]uint64{*assetFlag: 1}); err != nil {
		return err
	}
	group := types.NewCallGroup(&types.AppCall{
		Sender:   creator,
		Creation: true,
		Args: [][]byte{
			creator[:],
			market.EncodeUint(*assetFlag),
			market.EncodeUint(*royaltyFlag),
			market.EncodeUint(*waitFlag),
		},
	})
	_, err = host.Submit(group)
	return err
}

func runFund(host *ledger.Ledger, args []string) error {
	fs := flag.NewFlagSet("fund", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "account address (0x hex)")
	amountFlag := fs.Uint64("amount", 0, "amount to credit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := config.ParseAddress(*addrFlag)
	if err != nil {
		return err
	}
	return host.SeedAccount(addr, *amountFlag, nil)
}

func runStatus(host *ledger.Ledger) error {
	st, err := host.Market()
	if err != nil {
		return err
	}
	return printJSON(struct {
		Round  uint64              `json:"round"`
		Market *market.MarketState `json:"market"`
	}{host.CurrentRound(), st})
}

func runSlot(host *ledger.Ledger, args []string) error {
	fs := flag.NewFlagSet("slot", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "account address (0x hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := config.ParseAddress(*addrFlag)
	if err != nil {
		return err
	}
	slot, err := host.SlotOf(addr)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Status string       `json:"status"`
		Slot   *market.Slot `json:"slot"`
	}{slot.Status.String(), slot})
}

func runAdvance(host *ledger.Ledger, args []string) error {
	fs := flag.NewFlagSet("advance", flag.ExitOnError)
	roundsFlag := fs.Uint64("rounds", 1, "rounds to advance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := host.AdvanceRound(*roundsFlag); err != nil {
		return err
	}
	fmt.Printf("round advanced to %d\n", host.CurrentRound())
	return nil
}

func runSplitPlan(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("split-plan", flag.ExitOnError)
	totalFlag := fs.Uint64("total", 0, "sale total to allocate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(cfg.Collaborators) == 0 {
		return fmt.Errorf("split-plan: no collaborators configured")
	}
	payouts := make([]split.Payout, 0, len(cfg.Collaborators))
	for _, entry := range cfg.Collaborators {
		addr, err := config.ParseAddress(entry.Address)
		if err != nil {
			return err
		}
		payouts = append(payouts, split.Payout{Address: addr, ShareMille: entry.ShareMille})
	}
	plan, err := split.NewPlan(payouts)
	if err != nil {
		return err
	}
	amounts, err := plan.Allocate(*totalFlag)
	if err != nil {
		return err
	}
	for i, payout := range plan.Payouts() {
		fmt.Printf("%s  share=%d  amount=%d\n", cfg.Collaborators[i].Address, payout.ShareMille, amounts[i])
	}
	return nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
