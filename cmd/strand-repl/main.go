// Command strand-repl is an interactive demo shell over a single
// strand.Replica: a bufio.Reader command loop that exercises the
// library's public surface one line at a time rather than driving a real
// network of peers.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/strand-weave/strand"
)

type repl struct {
	replica *strand.Replica
	reader  *bufio.Reader
}

func main() {
	fmt.Println("strand REPL - collaborative text core demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	r := &repl{reader: bufio.NewReader(os.Stdin)}
	if err := r.cmdNew([]string{"1"}); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	for {
		fmt.Print("strand> ")
		line, err := r.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !r.handle(line) {
			return
		}
	}
}

func (r *repl) handle(line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help":
		r.printHelp()
	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false
	case "new":
		err = r.cmdNew(args)
	case "text":
		fmt.Printf("%q\n", r.replica.GetText())
	case "insert":
		err = r.cmdInsert(args)
	case "delete":
		err = r.cmdDelete(args)
	case "undo":
		r.cmdUndo()
	case "redo":
		r.cmdRedo()
	case "checkpoint":
		id := r.replica.CreateCheckpoint(false, nil)
		fmt.Printf("checkpoint %d\n", id.Seq)
	case "ops":
		fmt.Printf("%d integrated operations\n", len(r.replica.GetOperations()))
	default:
		fmt.Println("unknown command, try 'help'")
	}
	if err != nil {
		fmt.Println("error:", err)
	}
	return true
}

func (r *repl) cmdNew(args []string) error {
	site := uint32(1)
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return err
		}
		site = uint32(n)
	}
	rep, err := strand.New(site)
	if err != nil {
		return err
	}
	r.replica = rep
	fmt.Printf("new replica, site %d\n", site)
	return nil
}

// cmdInsert parses: insert <row> <col> <text...>
func (r *repl) cmdInsert(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: insert <row> <col> <text>")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	text := strings.Join(args[2:], " ")
	_, err = r.replica.SetTextInRange(p, p, text)
	return err
}

// cmdDelete parses: delete <startRow> <startCol> <endRow> <endCol>
func (r *repl) cmdDelete(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: delete <startRow> <startCol> <endRow> <endCol>")
	}
	start, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	end, err := parsePoint(args[2], args[3])
	if err != nil {
		return err
	}
	_, err = r.replica.SetTextInRange(start, end, "")
	return err
}

func (r *repl) cmdUndo() {
	res := r.replica.Undo()
	if res == nil {
		fmt.Println("nothing to undo")
		return
	}
	fmt.Printf("undid %d operation(s)\n", len(res.Operations))
}

func (r *repl) cmdRedo() {
	res := r.replica.Redo()
	if res == nil {
		fmt.Println("nothing to redo")
		return
	}
	fmt.Printf("redid %d operation(s)\n", len(res.Operations))
}

func parsePoint(rowS, colS string) (strand.Point, error) {
	row, err := strconv.ParseInt(rowS, 10, 64)
	if err != nil {
		return strand.Point{}, err
	}
	col, err := strconv.ParseInt(colS, 10, 64)
	if err != nil {
		return strand.Point{}, err
	}
	return strand.Point{Row: row, Column: col}, nil
}

func (r *repl) printHelp() {
	fmt.Println(`Commands:
  new <siteId>                        start a fresh replica
  text                                 print the current document text
  insert <row> <col> <text>            insert text at a position
  delete <row> <col> <row> <col>       delete a range
  undo                                 undo the last transaction
  redo                                 redo the last undone transaction
  checkpoint                           push a checkpoint
  ops                                  count integrated operations
  help                                 show this help
  quit                                 exit`)
}
