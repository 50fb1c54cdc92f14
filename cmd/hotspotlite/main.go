package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/sago35/hotspotlite/internal/config"
	"github.com/sago35/hotspotlite/pkg/classfile"
	"github.com/sago35/hotspotlite/pkg/vm"

	// Registers java/lang/System, java/lang/String, java/lang/StringBuilder
	// and java/io/PrintStream's native method bodies as a side effect.
	_ "github.com/sago35/hotspotlite/pkg/native"
)

func findJmodPath() string {
	if env := os.Getenv("HOTSPOTLITE_BASE_JMOD"); env != "" {
		return env
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "hotspotlite <class-or-jar>",
	Short: "A class-file interpreter for a small, structurally-verified Java subset.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Path = args[0]
		if cfg.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		return run(cfg)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&cfg.Run, "run", "r", false, "execute main after loading")
	flags.BoolVarP(&cfg.Dump, "dump", "d", false, "print a human-readable class dump")
	flags.BoolVarP(&cfg.Jar, "jar", "j", false, "treat the path as a jar")
	flags.StringVarP(&cfg.ClassPath, "classpath", "", "", "prepend to the class path search")
	flags.StringVarP(&cfg.ClassPath, "cp", "", "", "alias of --classpath")
	flags.BoolVarP(&cfg.AccessControl, "access-control", "", false, "enforce access-flag checks")
	flags.BoolVarP(&cfg.AccessControl, "ac", "", false, "alias of --access-control")
	flags.BoolVarP(&cfg.Verify, "verify", "v", false, "run structural verification")
	flags.BoolVarP(&cfg.DumpBacktrace, "dump-backtrace", "", false, "dump frame state on crash")
	flags.BoolVarP(&cfg.DumpBacktrace, "db", "", false, "alias of --dump-backtrace")
	flags.BoolVarP(&cfg.Verbose, "verbose", "", false, "trace opcode execution")
	flags.IntVarP(&cfg.StepSize, "step-size", "", 1, "instructions each thread runs per scheduling pass")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads cfg.Path per cfg.Jar/cfg.ClassPath, optionally dumps it
// (cfg.Dump), and optionally runs its main method (cfg.Run) to completion.
func run(cfg config.Config) error {
	if cfg.Verify {
		log.Info("structural verification requested: decode-time structural checks already run unconditionally; no separate pass is performed")
	}

	dir := filepath.Dir(cfg.Path)
	className := strings.TrimSuffix(filepath.Base(cfg.Path), ".class")

	var userLoader vm.ClassLoader
	jmodPath := findJmodPath()
	var bootstrap vm.ClassLoader
	if jmodPath != "" {
		bootstrap = vm.NewJmodClassLoader(jmodPath)
	}

	classPath := dir
	if cfg.ClassPath != "" {
		classPath = cfg.ClassPath
	}

	if cfg.Jar {
		jarLoader := vm.NewJarClassLoader(cfg.Path)
		userLoader = vm.NewUserClassLoader(classPath, &chainedLoader{first: jarLoader, second: bootstrap})
	} else {
		userLoader = vm.NewUserClassLoader(classPath, bootstrap)
	}

	if cfg.Dump {
		cf, err := userLoader.LoadClass(className)
		if err != nil {
			return fmt.Errorf("loading %s for dump: %w", className, err)
		}
		dumpClassFile(cf)
	}

	if !cfg.Run {
		return nil
	}

	v := vm.NewVM(userLoader)
	v.AccessControl = cfg.AccessControl
	v.DumpBacktrace = cfg.DumpBacktrace
	if cfg.StepSize > 0 {
		v.StepSize = cfg.StepSize
	}

	if err := v.Execute(className, []string{}); err != nil {
		return fmt.Errorf("executing %s: %w", className, err)
	}
	return nil
}

// chainedLoader tries first, then second, the shape -j/--jar needs to
// layer an application jar over the bootstrap class library.
type chainedLoader struct {
	first  vm.ClassLoader
	second vm.ClassLoader
}

func (c *chainedLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, err := c.first.LoadClass(name); err == nil {
		return cf, nil
	}
	if c.second != nil {
		return c.second.LoadClass(name)
	}
	return nil, fmt.Errorf("class %s not found", name)
}
