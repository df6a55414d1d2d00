package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crank/compile"
	"crank/isa/amd64"
	"crank/machreg"
	"crank/samples"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crank-cli",
		Short: "Compile builtin sample functions against the amd64 backend",
	}
	root.AddCommand(compileCmd(), isaCmd())
	return root
}

func compileCmd() *cobra.Command {
	var noGuardPages bool
	cmd := &cobra.Command{
		Use:   "compile [sample]",
		Short: "Compile a builtin sample function and dump its machine code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := samples.Find(args[0])
			if s == nil {
				return fmt.Errorf("unknown sample %q (see: crank-cli isa list)", args[0])
			}
			target := amd64.NewConfig()
			if noGuardPages {
				target = amd64.NewConfigNoGuardPages()
			}
			fn := s.Build()
			result, err := compile.Function(fn, target, compile.Options{})
			if err != nil {
				return fmt.Errorf("compiling %s: %w", fn.Name, err)
			}
			printArtifact(fn.Name, result)
			color.Green("compiled %s: %d bytes, %d relocations, %d safepoints",
				fn.Name, result.Size, len(result.Relocations), len(result.Safepoints))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noGuardPages, "no-guard-pages", false, "expand heap_addr with an explicit bounds compare instead of relying on guard pages")
	return cmd
}

func printArtifact(name string, a *compile.Result) {
	fmt.Printf("%s:\n", name)
	fmt.Printf("  code (%d bytes): %s\n", a.Size, hex.EncodeToString(a.Code))
	for _, r := range a.Relocations {
		fmt.Printf("  reloc @%d kind=%s addend=%d\n", r.Offset, r.Kind, r.Addend)
	}
	for _, t := range a.TrapSites {
		fmt.Printf("  trap @%d code=%d\n", t.Offset, t.Code)
	}
	for _, sp := range a.Safepoints {
		fmt.Printf("  safepoint pc=%d len=%d entries=%v\n", sp.PCOffset, sp.Length, sp.Entries)
	}
}

func isaCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "isa",
		Short: "Inspect the registered backend",
	}
	root.AddCommand(isaListCmd())
	return root
}

func isaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the allocatable registers and samples this build knows about",
		RunE: func(cmd *cobra.Command, args []string) error {
			mach := amd64.New()
			info := mach.RegInfo()

			fmt.Println("registers:")
			for _, class := range sortedClasses(info.Allocatable) {
				fmt.Printf("  %s:", class)
				for _, r := range info.Allocatable[class] {
					fmt.Printf(" %s", info.Names[class][r.Num])
				}
				fmt.Println()
			}

			fmt.Println("samples:")
			for _, s := range samples.All {
				fmt.Printf("  %-10s %s\n", s.Name, s.Description)
			}
			return nil
		},
	}
}

func sortedClasses(m map[machreg.Class][]machreg.Reg) []machreg.Class {
	classes := make([]machreg.Class, 0, len(m))
	for c := range m {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
