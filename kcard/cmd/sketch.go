// Copyright © 2023-2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/kcard/kcard/counter"
	"github.com/shenwei356/kcard/kcard/hll"
	"github.com/spf13/cobra"
)

var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "Create and save a sketch for each FASTA/Q file",
	Long: `Create and save a sketch for each FASTA/Q file

The k-mers are extracted in the same way as "kcard count", but the sketch
of every input file is saved into the output directory, along with an
information file (info.toml) recording the parameters. Sketches of the
same precision can be merged with "kcard merge".

Input:
  1. Input plain or compressed FASTA/Q files can be given via positional
     arguments or the flag -X/--infile-list with the list of input files,
  2. Or a directory containing sequence files via the flag -I/--in-dir.
  Duplicated files are only processed once.

Attentions:
  1. Gap patterns should be palindromic, e.g., 1,0,0,1, see "kcard count -h".

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------
		// flags

		sopt := getSeedOptions(cmd)
		sp, copt, err := CheckSeedOptions(sopt, opt.NumCPUs)
		checkError(err)

		outDir := getFlagString(cmd, "out-dir")
		if outDir == "" {
			checkError(fmt.Errorf("flag -O/--out-dir is needed"))
		}
		outDir = filepath.Clean(expandPath(outDir))
		force := getFlagBool(cmd, "force")

		files := getInputFiles(cmd, args, opt)

		makeOutDir(outDir, force, "output directory", opt.Verbose)

		if outputLog {
			log.Infof("kcard v%s", VERSION)
			log.Info()
			log.Infof("%s input file(s) given", humanize.Comma(int64(len(files))))
			log.Infof("seeds: %s", sp)
			log.Infof("sketch precision: %d, hash: %s, comparator: %s",
				sopt.Precision, sopt.Hash, sopt.Comparator)
			log.Info()
			log.Infof("sketching with %d threads ...", opt.NumCPUs)
		}
		warnAsymmetricSeeds(sp)

		// ---------------------------------------------------------------

		var sketchFiles []SketchFile
		copt.OnSketch, sketchFiles = sketchSaver(files, outDir)

		var wait func()
		copt.OnDone, wait = newProgressBar(len(files), opt, "processed files: ")

		result, err := counter.EstimateCardinality(files, sp, copt)
		wait()
		checkError(err)

		info := &SketchInfo{
			MainVersion:  MainVersion,
			MinorVersion: MinorVersion,

			K:          sp.K(),
			W:          sp.W(),
			Gaps:       sp.Gaps(),
			Span:       sp.Span(),
			Precision:  sopt.Precision,
			Hash:       sopt.Hash,
			Comparator: sopt.Comparator,

			Estimate:      result.Estimate,
			RelativeError: result.RelativeError,

			Files: sketchFiles,
		}
		checkError(writeSketchInfo(filepath.Join(outDir, FileInfo), info))

		if outputLog {
			log.Infof("estimated number of distinct k-mers: %s ± %s (relative error: %.4f%%)",
				humanize.Comma(int64(result.Estimate)), humanize.Comma(int64(result.AbsoluteError+0.5)),
				result.RelativeError*100)
			log.Infof("%d sketches saved to: %s", len(files), outDir)
		}
	},
}

// sketchSaver returns a callback saving the sketch of each input file
// into outDir, and the list of saved sketches in the order of files.
// A file given more than once gets one entry for each occurrence.
func sketchSaver(files []string, outDir string) (func(string, *hll.Sketch) error, []SketchFile) {
	file2idx := make(map[string][]int, len(files))
	for i, file := range files {
		file2idx[file] = append(file2idx[file], i)
	}

	sketchFiles := make([]SketchFile, len(files))
	return func(file string, sketch *hll.Sketch) error {
		idx := file2idx[file]
		if len(idx) == 0 {
			return fmt.Errorf("unexpected input file: %s", file)
		}
		i := idx[0]
		file2idx[file] = idx[1:]

		name := sketchFileName(file, i)
		sketchFiles[i] = SketchFile{Input: file, Sketch: name}
		_, err := sketch.WriteToFile(filepath.Join(outDir, name))
		return err
	}, sketchFiles
}

func init() {
	RootCmd.AddCommand(sketchCmd)

	addInputFlags(sketchCmd)
	addSeedFlags(sketchCmd)

	sketchCmd.Flags().StringP("out-dir", "O", "",
		formatFlagUsage(`Output directory.`))

	sketchCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite existed output directory.`))

	sketchCmd.SetUsageTemplate(usageTemplate("[-k <k>] [-w <w>] [-g <gaps>] {[-I <seqs dir>] | <seq files> | -X <file list>} -O <out dir>"))
}
