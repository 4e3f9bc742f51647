package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/mozillazg/go-pinyin"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// 大部分随机用户是普通坐席
var roles = []domain.Role{
	domain.RoleAgent,
	domain.RoleAgent,
	domain.RoleAgent,
	domain.RoleTeamLeader,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) service.CreateUserInput {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)

	return service.CreateUserInput{
		Username: username,
		FullName: fullName,
		Email:    username + "@" + emailDomainName,
		Role:     GenerateRandomRole(),
		Password: password,
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

// DefaultShiftTypes 是 seed 时插入的班次类型目录
var DefaultShiftTypes = []service.CreateShiftTypeInput{
	{Name: "早班", DefaultDuration: 8, Category: domain.ShiftCategoryNormal},
	{Name: "中班", DefaultDuration: 8, Category: domain.ShiftCategoryNormal},
	{Name: "晚班", DefaultDuration: 8, Category: domain.ShiftCategoryNormal},
	{Name: "周末加班", DefaultDuration: 4, Category: domain.ShiftCategoryOvertime},
	{Name: "节假日加班", DefaultDuration: 6, Category: domain.ShiftCategoryOvertime},
}

var shiftStartHours = []int{7, 9, 14, 18}

var locations = []string{"一号楼", "二号楼", "远程"}

// GenerateRandomShift 在 from 之后的 days 天内随机生成一个班次，时长取班次类型的默认时长
func GenerateRandomShift(userID int64, st *domain.ShiftType, from time.Time, days int) service.CreateShiftInput {
	day := from.AddDate(0, 0, rand.Intn(days))
	start := time.Date(day.Year(), day.Month(), day.Day(), shiftStartHours[rand.Intn(len(shiftStartHours))], 0, 0, 0, from.Location())

	return service.CreateShiftInput{
		UserID:      userID,
		ShiftTypeID: st.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(st.DefaultDuration) * time.Hour),
		Location:    locations[rand.Intn(len(locations))],
	}
}
