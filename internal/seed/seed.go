package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
)

// ShiftHeaders 是导入班次的 CSV 表头
var ShiftHeaders = []string{"username", "shift_type", "start_time", "end_time", "location"}

type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportShifts 从 CSV 中逐行导入班次，时间使用 RFC3339 格式。
// 单行数据有误时记录日志并跳过该行，读取 CSV 失败时返回错误。
func ImportShifts(ctx context.Context, svc *service.Service, r io.Reader, assignedBy int64) (ImportResult, error) {
	result := ImportResult{}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("读取表头失败: %w", err)
	}
	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		columns[strings.TrimSpace(header)] = i
	}
	for _, header := range ShiftHeaders {
		if _, ok := columns[header]; !ok {
			return result, fmt.Errorf("没有找到列 %q", header)
		}
	}

	// 班次类型按名称查找
	sts, err := svc.ListShiftTypes(ctx)
	if err != nil {
		return result, err
	}
	shiftTypes := make(map[string]*domain.ShiftType, len(sts))
	for _, st := range sts {
		shiftTypes[st.Name] = st
	}
	users := make(map[string]*domain.User)

	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return result, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		record := make(map[string]string, len(ShiftHeaders))
		for _, header := range ShiftHeaders {
			record[header] = strings.TrimSpace(row[columns[header]])
		}

		in, err := buildShiftInput(ctx, svc, record, shiftTypes, users)
		if err != nil {
			slog.Error("跳过无效的班次", "line", line, "error", err)
			result.Skipped++
			continue
		}
		in.AssignedBy = assignedBy

		if _, err := svc.CreateShift(ctx, in); err != nil {
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				return result, err
			}
			slog.Error("跳过无效的班次", "line", line, "error", err)
			result.Skipped++
			continue
		}
		result.Imported++
	}

	slog.Info("导入班次完成", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func buildShiftInput(ctx context.Context, svc *service.Service, record map[string]string, shiftTypes map[string]*domain.ShiftType, users map[string]*domain.User) (service.CreateShiftInput, error) {
	in := service.CreateShiftInput{Location: record["location"]}

	username := record["username"]
	user, ok := users[username]
	if !ok {
		var err error
		user, err = svc.GetUserByUsername(ctx, username)
		if err != nil {
			return in, fmt.Errorf("用户 %q 不存在", username)
		}
		users[username] = user
	}
	in.UserID = user.ID

	st, ok := shiftTypes[record["shift_type"]]
	if !ok {
		return in, fmt.Errorf("班次类型 %q 不存在", record["shift_type"])
	}
	in.ShiftTypeID = st.ID

	start, err := time.Parse(time.RFC3339, record["start_time"])
	if err != nil {
		return in, fmt.Errorf("开始时间格式错误: %w", err)
	}
	end, err := time.Parse(time.RFC3339, record["end_time"])
	if err != nil {
		return in, fmt.Errorf("结束时间格式错误: %w", err)
	}
	in.StartTime, in.EndTime = start, end

	return in, nil
}
