package commandline

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fbroman/chainy/chainy"
	"github.com/fbroman/chainy/internal/log"
	"github.com/fbroman/chainy/internal/util"
)

type commandLine struct {
	file  string
	db    string
	level slog.Level
}

// New assembles the chainy command tree.
func New() *cobra.Command {
	cli := &commandLine{}

	root := &cobra.Command{
		Use:          "chainy",
		Long:         "Tamper-evident append-only log",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(log.NewLogger(os.Stderr, cli.level))
		},
	}

	root.PersistentFlags().VarP(log.NewLogLevel(&cli.level, slog.LevelInfo), "level", "l", "log level")
	root.PersistentFlags().StringVarP(&cli.file, "file", "f", "chain.json", "chain file")
	root.PersistentFlags().StringVar(&cli.db, "db", "./tmp/ledger", "ledger directory")

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create a fresh chain holding only the genesis block",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.initChain()
			},
		},
		&cobra.Command{
			Use:   "add DATA",
			Short: "Append an entry of up to 64 characters to the chain",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return cli.add(args[0])
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check every block hash and linkage in the chain file",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.verify()
			},
		},
		&cobra.Command{
			Use:   "print",
			Short: "Print the blocks in the chain, newest first",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.printChain()
			},
		},
		&cobra.Command{
			Use:   "archive",
			Short: "Copy the chain file into the durable ledger",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.archive()
			},
		},
		&cobra.Command{
			Use:   "restore",
			Short: "Rebuild the chain file from the durable ledger",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.restore()
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Print one ledger block by its base58 id",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return cli.get(args[0])
			},
		},
	)

	return root
}

func (cli *commandLine) initChain() error {
	c, err := chainy.New()
	if err != nil {
		return err
	}

	if err := c.Store(cli.file); err != nil {
		return err
	}

	slog.Info("chain created", "file", cli.file)

	return nil
}

func (cli *commandLine) add(data string) error {
	c, err := chainy.Load(cli.file)
	if err != nil {
		return err
	}

	if err := c.Entry(data); err != nil {
		return err
	}

	if err := c.Store(cli.file); err != nil {
		return err
	}

	slog.Info("entry added", "file", cli.file, "length", c.Len())

	return nil
}

func (cli *commandLine) verify() error {
	// Load validates before returning a chain.
	c, err := chainy.Load(cli.file)
	if err != nil {
		return err
	}

	fmt.Printf("Chain is valid, %d blocks\n", c.Len())

	return nil
}

func (cli *commandLine) printChain() error {
	c, err := chainy.Load(cli.file)
	if err != nil {
		return err
	}

	blocks := c.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		printBlock(blocks[i])
	}

	return nil
}

func (cli *commandLine) archive() error {
	c, err := chainy.Load(cli.file)
	if err != nil {
		return err
	}

	var ledger *chainy.Ledger
	if chainy.LedgerExists(cli.db) {
		ledger, err = chainy.ContinueLedger(cli.db)
	} else {
		ledger, err = chainy.OpenLedger(cli.db)
	}
	if err != nil {
		return err
	}
	defer ledger.Close()

	if err := ledger.Archive(c); err != nil {
		return err
	}

	slog.Info("chain archived", "db", cli.db, "length", c.Len())

	return nil
}

func (cli *commandLine) restore() error {
	ledger, err := chainy.ContinueLedger(cli.db)
	if err != nil {
		return err
	}
	defer ledger.Close()

	c, err := ledger.Chain()
	if err != nil {
		return err
	}

	if err := c.Store(cli.file); err != nil {
		return err
	}

	slog.Info("chain restored", "file", cli.file, "length", c.Len())

	return nil
}

func (cli *commandLine) get(id string) error {
	ledger, err := chainy.ContinueLedger(cli.db)
	if err != nil {
		return err
	}
	defer ledger.Close()

	block, err := ledger.Get(id)
	if err != nil {
		return err
	}

	printBlock(block)

	return nil
}

func printBlock(b *chainy.Block) {
	id, err := util.BlockID(b.Hash)
	if err != nil {
		id = "?"
	}

	fmt.Printf("ID: %s\n", id)
	fmt.Printf("Offset: %d\n", b.Offset)
	fmt.Printf("Timestamp: %d\n", b.Timestamp)
	fmt.Printf("Prev. hash: %s\n", b.PrevHash)
	fmt.Printf("Hash: %s\n", b.Hash)
	fmt.Printf("Data: %s\n", b.Data)
	fmt.Println()
}
