// Package test provides self-benchmarks of the shipper with sample logs
package test

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/input/lineinput"
	"github.com/relex/log-shipper/input/logrushook"
	"github.com/relex/log-shipper/output/nulloutput"
	"github.com/relex/log-shipper/run"
	"github.com/relex/log-shipper/shipper"
	"github.com/relex/log-shipper/util"
	"github.com/sirupsen/logrus"
)

type benchmarkMetric struct {
	fmt string
	val float64
}

// BenchmarkResult summarizes the numbers of records at each stage of a benchmark
type BenchmarkResult struct {
	Input    int // records fed to the shipper
	Appended int // records accepted into the buffer
	Sent     int // records accepted by the sender
}

// RunBenchmarkHook benchmarks a shipper fed by a logrus logger through Hook, with null output
//
// Records are never evicted as the buffer is sized for all input
func RunBenchmarkHook(inputPath string, repeat int) BenchmarkResult {
	mfactory := base.NewMetricFactory("benchhook_", nil, nil)
	_, inputLines := loadInput(inputPath)
	totalInputCount := len(inputLines) * repeat

	config := shipper.DefaultConfig()
	config.MaxBuffer = totalInputCount + 1
	config.ShowStats = false
	sender := nulloutput.NewSender(logger.Root(), nulloutput.Config{}, mfactory)
	shpr := shipper.Launch(logger.Root(), config, sender, nil, mfactory)

	lgr := logrus.New()
	lgr.SetOutput(io.Discard)
	lgr.SetLevel(logrus.TraceLevel)
	lgr.AddHook(logrushook.NewHook(shpr, logrus.TraceLevel))

	entries := make([]base.LogRecord, len(inputLines))
	for i, ln := range inputLines {
		entries[i] = lineinput.ParseLine(ln, time.Time{}, "benchmark")
	}

	inputLength := 0
	for _, ln := range inputLines {
		inputLength += len(ln) + 1
	}
	costTracker := StartCostTracking()
	entry := lgr.WithField("component", "benchmark")
	for r := 0; r < repeat; r++ {
		for _, rec := range entries {
			entry.Log(toLogrusLevel(rec.Level), rec.Message) // Log() doesn't exit or panic at fatal level
		}
	}
	shutdownShipper(shpr)

	result := collectResult(totalInputCount, mfactory)
	reportBenchmarkResult("BenchmarkHook", totalInputCount, int64(inputLength)*int64(repeat), costTracker.Report(), result)
	return result
}

// RunBenchmarkShipper benchmarks a shipper configured by the config file and fed through its TCP input
//
// Output is replaced by null output if outputNull is true. Input lines are not merged as multi-line records.
func RunBenchmarkShipper(inputPath string, outputNull bool, repeat int, configFile string) BenchmarkResult {
	loader, loaderErr := run.NewLoaderFromConfigFile(configFile, "benchshipper_")
	if loaderErr != nil {
		logger.Panic(loaderErr)
	}
	if outputNull {
		loader.NullOutput = &nulloutput.Config{}
	}
	loader.Input = lineinput.Config{Stdin: false, TCPAddress: "localhost:0", MultiLine: false}

	sender, senderErr := loader.NewSender(logger.Root())
	if senderErr != nil {
		logger.Panic(senderErr)
	}
	shpr := loader.LaunchShipper(logger.Root(), sender)
	addr, _, shutdownInputs, inputErr := loader.LaunchInputs(logger.Root(), shpr)
	if inputErr != nil {
		logger.Panic(inputErr)
	}

	inputData, inputLines := loadInput(inputPath)
	totalInputCount := len(inputLines) * repeat
	costTracker := StartCostTracking()
	runBenchmarkInputSender(addr, inputData, repeat)
	time.Sleep(defs.InputFlushInterval * 3)

	logger.Info("stopping...")
	shutdownInputs()
	shutdownShipper(shpr)

	result := collectResult(totalInputCount, loader.MetricFactory)
	reportBenchmarkResult("BenchmarkShipper", totalInputCount, int64(len(inputData))*int64(repeat), costTracker.Report(), result)
	if dump, err := loader.MetricFactory.DumpMetrics(false); err == nil {
		logger.Info(dump)
	}
	return result
}

func shutdownShipper(shpr *shipper.Shipper) {
	ctx, cancel := context.WithTimeout(context.Background(), defs.ShutdownTimeout)
	defer cancel()
	shpr.Shutdown(ctx)
}

func runBenchmarkInputSender(address string, inputData []byte, repeat int) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		logger.Fatal("connect: ", err.Error())
	}
	numSent := int64(0)
	for i := 0; i < repeat; i++ {
		n, err := conn.Write(inputData)
		if err != nil {
			logger.Fatal("error sending: ", err.Error())
		}
		numSent += int64(n)
	}
	if err := conn.Close(); err != nil {
		logger.Fatal("close: ", err.Error())
	}
	logger.Infof("writer sent %d bytes", numSent)
}

func collectResult(numInput int, mfactory *base.MetricFactory) BenchmarkResult {
	return BenchmarkResult{
		Input:    numInput,
		Appended: int(util.SumMetricValues(mfactory.AddOrGetCounter("shipper_appended_records_total", "", nil, nil))),
		Sent:     int(util.SumMetricValues(mfactory.AddOrGetCounterVec("flush_sent_records_total", "", []string{"trigger"}, nil))),
	}
}

func reportBenchmarkResult(title string, numLogs int, sizeOfLogs int64, report CostReport, result BenchmarkResult) {
	metrics := []benchmarkMetric{
		{fmt: "%.0f log/sec", val: float64(numLogs) / report.RealTime.Seconds()},
		{fmt: "%.0f MB/sec", val: float64(sizeOfLogs) / 1048576 / report.RealTime.Seconds()},
		{fmt: "%0.2f alloc/log", val: float64(report.NumHeapAllocs) / float64(numLogs)},
		{fmt: "%0.2f%% user", val: 100.0 * report.UserTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% sys", val: 100.0 * report.SystemTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% gc", val: 100.0 * report.GCCPUFraction},
		{fmt: "%.02f sec", val: report.RealTime.Seconds()},
		{fmt: "%.0f appended", val: float64(result.Appended)},
		{fmt: "%.0f sent", val: float64(result.Sent)},
	}
	if result.Appended != numLogs {
		logger.Errorf("numbers of appended records don't match: %d, should be %d", result.Appended, numLogs)
	}
	printBenchmarkMetrics(title, metrics)
}

func printBenchmarkMetrics(title string, metrics []benchmarkMetric) {
	sb := make([]byte, 0, 200)
	sb = append(sb, fmt.Sprintf("%s:", title)...)
	for _, m := range metrics {
		sb = append(sb, fmt.Sprintf("\t"+m.fmt, m.val)...)
	}
	fmt.Println(string(sb))
}

func toLogrusLevel(level base.LogLevel) logrus.Level {
	switch level {
	case base.LevelTrace:
		return logrus.TraceLevel
	case base.LevelDebug:
		return logrus.DebugLevel
	case base.LevelWarn:
		return logrus.WarnLevel
	case base.LevelError:
		return logrus.ErrorLevel
	case base.LevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
