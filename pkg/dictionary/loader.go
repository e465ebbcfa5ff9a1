package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// maxRank is the rank ceiling of the binary format; rank 1 scores maxRank.
const maxRank = 65535

// LoadOptions bounds what Load reads.
type LoadOptions struct {
	// MaxWords caps the number of words kept; 0 keeps all.
	MaxWords int
	// Workers bounds concurrent chunk reads; 0 picks 4.
	Workers int
}

// ChunkInfo describes one chunk file found on disk.
type ChunkInfo struct {
	ID        int
	Filename  string
	WordCount int
}

// Load reads a word list file or a directory of chunk files.
func Load(path string, opts LoadOptions) (*Dictionary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dictionary %s: %w", path, err)
	}

	if info.IsDir() {
		return loadChunkDir(path, opts)
	}

	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	dict := New()
	switch format {
	case FormatChunk:
		words, err := readChunk(path)
		if err != nil {
			return nil, err
		}
		addWords(dict, words, opts.MaxWords)
	case FormatText:
		words, err := readText(path)
		if err != nil {
			return nil, err
		}
		addWords(dict, words, opts.MaxWords)
	default:
		return nil, fmt.Errorf("unsupported dictionary format for %s", path)
	}

	log.Debugf("Loaded %d words from %s", dict.Len(), path)
	return dict, nil
}

// AvailableChunks lists the dict_NNNN.bin files in dir ordered by id.
func AvailableChunks(dir string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "dict_*.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		count, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
		}
		chunks = append(chunks, ChunkInfo{ID: id, Filename: file, WordCount: count})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks, nil
}

func loadChunkDir(dir string, opts LoadOptions) (*Dictionary, error) {
	chunks, err := AvailableChunks(dir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunk files found in %s", dir)
	}

	// only read as many chunks as the word cap needs
	if opts.MaxWords > 0 {
		total := 0
		for i, c := range chunks {
			total += c.WordCount
			if total >= opts.MaxWords {
				chunks = chunks[:i+1]
				break
			}
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([][]Word, len(chunks))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range chunks {
		g.Go(func() error {
			words, err := readChunk(c.Filename)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", c.ID, err)
			}
			results[i] = words
			log.Debugf("Chunk %d read: %d words", c.ID, len(words))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Word
	for _, words := range results {
		all = append(all, words...)
	}
	dict := New()
	addWords(dict, all, opts.MaxWords)
	log.Debugf("Loaded %d words from %d chunks in %s", dict.Len(), len(chunks), dir)
	return dict, nil
}

func addWords(dict *Dictionary, words []Word, maxWords int) {
	for _, w := range words {
		if maxWords > 0 && dict.Len() >= maxWords {
			return
		}
		dict.Add(w.Text, w.Frequency)
	}
}

func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

// readChunk decodes a binary chunk file.
func readChunk(filename string) ([]Word, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var total int32
	if err := binary.Read(reader, binary.LittleEndian, &total); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if total < 0 {
		return nil, fmt.Errorf("invalid word count %d in %s", total, filename)
	}

	words := make([]Word, 0, total)
	for len(words) < int(total) {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}

		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}

		var rank uint16
		if err := binary.Read(reader, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}

		// rank 1 becomes 65535, rank 2 becomes 65534, and so on
		words = append(words, Word{Text: string(wordBytes), Frequency: maxRank - int(rank) + 1})
	}
	return words, nil
}

// readText decodes a plain text word list.
func readText(filename string) ([]Word, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", filename, err)
	}
	defer file.Close()

	var words []Word
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		line++

		freq := max(maxRank-line+1, 1)
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				freq = n
			}
		}
		words = append(words, Word{Text: fields[0], Frequency: freq})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", filename, err)
	}
	return words, nil
}

// WriteChunk encodes words in the binary chunk format, ranking them by order.
func WriteChunk(w io.Writer, words []string) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(words))); err != nil {
		return err
	}
	for i, word := range words {
		if err := binary.Write(w, binary.LittleEndian, uint16(len(word))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, word); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(min(i+1, maxRank))); err != nil {
			return err
		}
	}
	return nil
}
