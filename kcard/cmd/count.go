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
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/kcard/kcard/counter"
	"github.com/shenwei356/kcard/kcard/spacer"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Estimate the number of distinct k-mers in FASTA/Q files",
	Long: `Estimate the number of distinct k-mers in FASTA/Q files

How:
  1. For every window of w bases, all k-mers in it are encoded, with
     bases sampled with the gap pattern (-g/--gaps) for spaced seeds.
  2. The canonical form (the smaller one of the k-mer and its reverse
     complement) of the k-mers are compared, and the smallest one
     (or the biggest one with -M/--max) is kept.
  3. The kept k-mers are hashed and added into a HyperLogLog sketch.
     Each file is processed in a separate thread, and all sketches
     are merged at last.

Input:
  1. Input plain or compressed FASTA/Q files can be given via positional
     arguments or the flag -X/--infile-list with the list of input files,
  2. Or a directory containing sequence files via the flag -I/--in-dir,
     with multiple-level sub-directories allowed. A regular expression
     for matching sequencing files is available via the flag -r/--file-regexp.

Output (TSV):
  files, k, w, span, precision, estimate, relative_error, absolute_error

Attentions:
  1. Windows shorter than w at the end of sequences are ignored.
  2. Bases other than ACGT are treated as A.
  3. The relative error is the theoretical standard error: 1.03896/sqrt(2^p),
     and the absolute error is relative_error * estimate.
  4. Gap patterns should be palindromic, e.g., 1,0,0,1. The reverse
     complement strand of a sequence samples mirrored offsets with
     a non-palindromic pattern, so a k-mer and its reverse complement
     are not merged, and the estimate is inflated.

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

		outFile := getFlagString(cmd, "out-file")
		sketchFile := getFlagString(cmd, "save-sketch")

		files := getInputFiles(cmd, args, opt)

		if outputLog {
			log.Infof("kcard v%s", VERSION)
			log.Info()
			log.Infof("%s input file(s) given", humanize.Comma(int64(len(files))))
			log.Infof("seeds: %s", sp)
			log.Infof("sketch precision: %d, hash: %s, keeping the %s k-mer in each window",
				sopt.Precision, sopt.Hash, map[string]string{"min": "smallest", "max": "biggest"}[sopt.Comparator])
			log.Info()
			log.Infof("counting with %d threads ...", opt.NumCPUs)
		}
		warnAsymmetricSeeds(sp)

		// ---------------------------------------------------------------

		var wait func()
		copt.OnDone, wait = newProgressBar(len(files), opt, "processed files: ")

		result, err := counter.EstimateCardinality(files, sp, copt)
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

		// ---------------------------------------------------------------
		// output

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

func writeResultHeader(outfh io.Writer) {
	fmt.Fprintf(outfh, "files\tk\tw\tspan\tprecision\testimate\trelative_error\tabsolute_error\n")
}

// writeResult writes a result line, the seed columns are left empty if sp is nil.
func writeResult(outfh io.Writer, result *counter.Result, sp *spacer.Spacer) {
	if sp == nil {
		fmt.Fprintf(outfh, "%d\t\t\t\t%d\t%d\t%.6f\t%.1f\n",
			result.Files, result.Sketch.Precision(), result.Estimate, result.RelativeError, result.AbsoluteError)
		return
	}
	fmt.Fprintf(outfh, "%d\t%d\t%d\t%d\t%d\t%d\t%.6f\t%.1f\n",
		result.Files, sp.K(), sp.W(), sp.Span(), result.Sketch.Precision(), result.Estimate,
		result.RelativeError, result.AbsoluteError)
}

func init() {
	RootCmd.AddCommand(countCmd)

	addInputFlags(countCmd)
	addSeedFlags(countCmd)

	countCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	countCmd.Flags().StringP("save-sketch", "s", "",
		formatFlagUsage(`Save the merged sketch to a file, which can be merged with others via "kcard merge". Supports the ".gz" suffix.`))

	countCmd.SetUsageTemplate(usageTemplate("[-k <k>] [-w <w>] [-g <gaps>] {[-I <seqs dir>] | <seq files> | -X <file list>} [-o out.tsv]"))
}
