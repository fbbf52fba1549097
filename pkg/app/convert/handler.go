package convert

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wintermute101/uf2info/internal/services"
	"github.com/wintermute101/uf2info/internal/types"
	"github.com/wintermute101/uf2info/pkg/app"
)

// Handle processes a conversion request. The output file, if requested, is
// only written after the whole input has been decoded successfully.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stat, err := os.Stat(req.InputPath)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInputAccess, "cannot access input file", err)
	}
	if stat.IsDir() {
		return nil, app.NewError(app.ErrCodeInputAccess, "input path is a directory", nil)
	}

	ctx.Log("Converting %s (%d bytes, %d blocks)", req.InputPath, stat.Size(), stat.Size()/types.BlockSize)
	if stat.Size()%types.BlockSize != 0 {
		ctx.Log("Input size is not a multiple of %d bytes", types.BlockSize)
	}

	// 2. Run the conversion pass
	var blockList []BlockInfo
	svc := services.NewConversionService(services.ConversionOptions{
		SkipNotMainFlash: req.SkipNotMainFlash,
		OnBlock: func(ev services.BlockEvent) {
			logBlock(ctx, ev)
			if req.ListBlocks {
				blockList = append(blockList, newBlockInfo(ev))
			}
		},
	})

	result, err := svc.ConvertFile(req.InputPath)
	if err != nil {
		var blockErr *services.BlockError
		if errors.As(err, &blockErr) {
			return nil, app.NewError(app.ErrCodeDecode, "failed to decode UF2 input", err)
		}
		return nil, app.NewError(app.ErrCodeInputAccess, "failed to read UF2 input", err)
	}

	for _, inc := range result.Inconsistencies {
		ctx.Log("Inconsistency: %s", inc)
	}

	// 3. Strict mode refuses inconsistent input before anything is written
	if req.Strict && result.HasInconsistencies() {
		return nil, app.NewError(app.ErrCodeInconsistent, "input has sequencing inconsistencies",
			errors.New(result.Inconsistencies[0].String()))
	}

	response := buildResponse(req, stat.Size(), result)
	response.Blocks = blockList

	// 4. Write output
	if req.OutputPath != "" {
		opts := req.outputOptions()
		if err := services.WriteOutputFile(req.OutputPath, result, opts); err != nil {
			return nil, app.NewError(app.ErrCodeOutputWrite, "failed to write output file", err)
		}
		response.OutputPath = req.OutputPath
		response.OutputFormat = string(opts.Format)
		ctx.Log("Wrote %s output to %s", opts.Format, req.OutputPath)
	}

	response.Duration = time.Since(startTime)
	return response, nil
}

// logBlock prints the per-block line in verbose mode
func logBlock(ctx *app.Context, ev services.BlockEvent) {
	if !ctx.Verbose {
		return
	}

	r := ev.Reader
	line := "Block %d flags %s target_addr 0x%X-0x%X data_len %d total_blocks %d"
	if ev.Skipped {
		line += " (skipped)"
	}
	ctx.Log(line, ev.Position, r.Flags(), r.TargetAddress(),
		uint64(r.TargetAddress())+uint64(r.DataLength()), r.DataLength(), r.TotalBlocks())
}

func buildResponse(req *Request, inputSize int64, result *services.ConversionResult) *Response {
	response := &Response{
		RunID:           uuid.NewString(),
		InputPath:       req.InputPath,
		InputSize:       inputSize,
		BlocksProcessed: result.BlocksProcessed,
		BlocksSkipped:   result.BlocksSkipped,
		DeclaredTotal:   result.DeclaredTotal,
		BinaryLength:    len(result.Binary),
		Regions:         make([]RegionInfo, 0, len(result.Regions)),
		Inconsistencies: make([]InconsistencyInfo, 0, len(result.Inconsistencies)),
	}

	for _, r := range result.Regions {
		response.Regions = append(response.Regions, newRegionInfo(r))
		response.CoveredBytes += uint64(r.Len())
	}
	for _, f := range result.Families {
		response.Families = append(response.Families, FamilyInfo{ID: uint32(f), Name: f.Name()})
	}
	for _, inc := range result.Inconsistencies {
		response.Inconsistencies = append(response.Inconsistencies, newInconsistencyInfo(inc))
	}

	return response
}
