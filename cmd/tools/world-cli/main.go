package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

func main() {
	var (
		command    = flag.String("cmd", "info", "Command: export, info")
		file       = flag.String("file", "world.bin", "World payload file")
		configPath = flag.String("config", "", "YAML config for export (default: built-in)")
		seed       = flag.Int64("seed", 0, "Override world seed for export")
	)
	flag.Parse()

	switch *command {
	case "export":
		if err := exportWorld(*configPath, *file, *seed); err != nil {
			log.Fatalf("❌ Export failed: %v", err)
		}
	case "info":
		if err := showInfo(*file); err != nil {
			log.Fatalf("❌ Info failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: export, info")
		os.Exit(1)
	}
}

// exportWorld генерирует мир и записывает его полезную нагрузку в файл
func exportWorld(configPath, path string, seed int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.World.Seed = seed
	}

	start := time.Now()
	w, err := world.Generate(context.Background(), cfg.World)
	if err != nil {
		return err
	}
	fmt.Printf("🌍 Generated %dx%d chunks in %v\n", w.SizeInChunksX(), w.SizeInChunksZ(), time.Since(start))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := bufio.NewWriter(f)
	if err := w.EncodePayload(out); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	fmt.Printf("💾 Saved to %s\n", path)
	return nil
}

// showInfo читает файл мира и печатает сводку по блокам
func showInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := protocol.DecodeWorld(bufio.NewReader(f))
	if err != nil {
		return err
	}

	s := p.Settings
	fmt.Printf("🌍 World: %s, seed %d, %dx%d chunks\n", s.WorldType, s.Seed, s.SizeInChunksX, s.SizeInChunksZ)
	fmt.Printf("☀️ Sun strength: %d, next object id: %d\n", s.SunStrength, s.GameObjectIDSeq)
	fmt.Printf("🔦 Static items: %d, chunk flags: %d\n", len(s.StaticItems), len(s.ChunkFlags))

	counts := make(map[block.BlockID]int)
	dirty := 0
	for _, words := range p.Chunks {
		for _, word := range words {
			b := block.FromWord(word)
			counts[b.ID]++
			if b.Dirty {
				dirty++
			}
		}
	}

	fmt.Printf("🧱 Blocks (%d changed by players):\n", dirty)
	for id := block.BlockID(0); id <= block.LastKnownBlockID; id++ {
		if n := counts[id]; n > 0 {
			fmt.Printf("  %-8s %d\n", id, n)
		}
	}
	return nil
}
