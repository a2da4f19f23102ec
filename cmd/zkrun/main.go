// Command zkrun executes a single piece of EVM bytecode against an
// in-memory environment and prints the outcome: halt reason, return data,
// gas remaining, and the Virtual Counter Manager's accumulated counts.
//
// It exists to exercise the vm/eei/vcm/chainconfig stack end to end
// without a real state backend, the same niche the teacher's standalone
// node binaries fill for the full client.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/eth2030/zkcore/chainconfig"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/eei/memenv"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/vm"
	"github.com/eth2030/zkcore/word"
)

var (
	codeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "contract bytecode, as hex (0x-prefixed or not)",
		Required: true,
	}
	calldataFlag = &cli.StringFlag{
		Name:  "calldata",
		Usage: "call data, as hex",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas allowance for the call",
		Value: 10_000_000,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "call value, in wei (decimal)",
		Value: "0",
	}
	callerFlag = &cli.StringFlag{
		Name:  "caller",
		Usage: "caller address, as hex",
		Value: "0x1100000000000000000000000000000000000011",
	}
	addressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "callee address, as hex",
		Value: "0x2200000000000000000000000000000000000022",
	}
	staticFlag = &cli.BoolFlag{
		Name:  "static",
		Usage: "run in a static (non-state-modifying) frame",
	}
)

func main() {
	app := &cli.App{
		Name:  "zkrun",
		Usage: "run EVM bytecode against the zkcore dispatch core",
		Commands: []*cli.Command{
			runCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "zkrun:", err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "execute one call against a fresh in-memory environment",
	Flags: []cli.Flag{codeFlag, calldataFlag, gasFlag, valueFlag, callerFlag, addressFlag, staticFlag},
	Action: func(c *cli.Context) error {
		code, err := parseHex(c.String("code"))
		if err != nil {
			return fmt.Errorf("--code: %w", err)
		}
		calldata, err := parseHex(c.String("calldata"))
		if err != nil {
			return fmt.Errorf("--calldata: %w", err)
		}
		caller, err := parseAddress(c.String("caller"))
		if err != nil {
			return fmt.Errorf("--caller: %w", err)
		}
		address, err := parseAddress(c.String("address"))
		if err != nil {
			return fmt.Errorf("--address: %w", err)
		}
		value := word.Zero()
		if v := c.String("value"); v != "" && v != "0" {
			if err := value.SetFromDecimal(v); err != nil {
				return fmt.Errorf("--value: %w", err)
			}
		}

		env := memenv.New(address, caller, caller, value, calldata)
		env.SetCode(address, code)
		env.SetBalance(caller, new(word.Word).SetUint64(1<<62))

		frame := vm.NewFrame(caller, address, value, c.Uint64("gas"))
		frame.SetCode(code)
		frame.Input = calldata
		frame.Origin = caller
		frame.GasPrice = word.Zero()
		frame.IsStatic = c.Bool("static")

		counters := vcm.New()
		evm := vm.NewEVM(chainconfig.Default())
		out, halt := evm.Run(frame, env, counters)

		fmt.Printf("halt:      %s\n", halt.Code)
		fmt.Printf("gas left:  %d\n", frame.Gas)
		fmt.Printf("output:    0x%s\n", hex.EncodeToString(out))
		fmt.Printf("refund:    %d\n", env.RefundBalance())

		fmt.Println("counters:")
		snap := counters.Snapshot()
		for i, n := range snap {
			if n == 0 {
				continue
			}
			fmt.Printf("  %-16s %d\n", vcm.Counter(i), n)
		}
		return nil
	},
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func parseAddress(s string) (eei.Address, error) {
	b, err := parseHex(s)
	if err != nil {
		return eei.Address{}, err
	}
	return eei.BytesToAddress(b), nil
}
