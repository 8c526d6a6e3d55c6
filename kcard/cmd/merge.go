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
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/kcard/kcard/counter"
	"github.com/shenwei356/kcard/kcard/spacer"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge sketches and estimate the number of distinct k-mers",
	Long: `Merge sketches and estimate the number of distinct k-mers

Input:
  1. A sketch directory created by "kcard sketch" via the flag -d/--sketch-dir,
  2. Or sketch files created by "kcard count -s" or "kcard sketch",
     via positional arguments or the flag -X/--infile-list.

Attentions:
  1. All sketches must have the same precision.
  2. K-mer parameters are not recorded in sketch files, please make sure
     sketches to merge are created with the same parameters.

Output (TSV):
  files, k, w, span, precision, estimate, relative_error, absolute_error
  (k-mer parameters are only available with -d/--sketch-dir)

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

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

		dbDir := getFlagString(cmd, "sketch-dir")
		outFile := getFlagString(cmd, "out-file")
		sketchFile := getFlagString(cmd, "save-sketch")

		var files []string
		var sp *spacer.Spacer
		var err error
		if dbDir != "" {
			dbDir = expandPath(dbDir)
			info, err := readSketchInfo(filepath.Join(dbDir, FileInfo))
			checkError(err)

			sp, err = info.Spacer()
			checkError(err)

			files = make([]string, 0, len(info.Files))
			for _, f := range info.Files {
				files = append(files, filepath.Join(dbDir, f.Sketch))
			}
			checkFiles(files...)

			if outputLog {
				log.Infof("sketch directory: %s", dbDir)
				log.Infof("  seeds: %s", sp)
				log.Infof("  precision: %d, hash: %s, comparator: %s", info.Precision, info.Hash, info.Comparator)
			}
		} else {
			files = getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
			for _, file := range files {
				if isStdin(file) {
					checkError(fmt.Errorf("sketch files or -d/--sketch-dir needed"))
				}
			}
		}
		if len(files) == 0 {
			checkError(fmt.Errorf("no sketches to merge"))
		}

		if outputLog {
			log.Infof("merging %s sketches with %d threads ...", humanize.Comma(int64(len(files))), opt.NumCPUs)
		}

		onDone, wait := newProgressBar(len(files), opt, "merged sketches: ")
		result, err := counter.MergeSketchFiles(files, opt.NumCPUs, onDone)
		wait()
		checkError(err)

		if sketchFile != "" {
			_, err = result.Sketch.WriteToFile(sketchFile)
			checkError(err)
			if outputLog {
				log.Infof("merged sketch saved to: %s", sketchFile)
			}
		}

		if outputLog {
			log.Infof("estimated number of distinct k-mers: %s ± %s (relative error: %.4f%%)",
				humanize.Comma(int64(result.Estimate)), humanize.Comma(int64(result.AbsoluteError+0.5)),
				result.RelativeError*100)
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		writeResultHeader(outfh)
		writeResult(outfh, result, sp)
	},
}

func init() {
	RootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringP("sketch-dir", "d", "",
		formatFlagUsage(`Sketch directory created by "kcard sketch".`))

	mergeCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of sketch file list (one file per line).`))

	mergeCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	mergeCmd.Flags().StringP("save-sketch", "s", "",
		formatFlagUsage(`Save the merged sketch to a file.`))

	mergeCmd.SetUsageTemplate(usageTemplate("{-d <sketch dir> | <sketch files> | -X <file list>} [-o out.tsv]"))
}
