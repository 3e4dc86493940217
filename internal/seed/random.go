package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

var companies = []string{"星辰科技", "蓝海数据", "云杉软件", "北辰网络", "青橙互动", "远山智能"}

var cities = []string{"北京", "上海", "广州", "深圳", "杭州", "成都", "Remote"}

var categories = []string{"Engineering", "Design", "Product", "Marketing", "Operations", "Data"}

var titles = map[string][]string{
	"Engineering": {"Backend Engineer", "Frontend Engineer", "Go Developer", "SRE", "Mobile Engineer"},
	"Design":      {"UI Designer", "UX Researcher", "Visual Designer"},
	"Product":     {"Product Manager", "Product Owner"},
	"Marketing":   {"Growth Marketer", "Content Strategist"},
	"Operations":  {"Operations Specialist", "Customer Success Manager"},
	"Data":        {"Data Analyst", "Data Engineer", "Machine Learning Engineer"},
}

var skills = []string{"go", "postgresql", "redis", "kubernetes", "react", "typescript", "figma", "sql", "python", "docker"}

var jobTypes = []domain.JobType{
	domain.JobTypeFullTime,
	domain.JobTypePartTime,
	domain.JobTypeContract,
	domain.JobTypeInternship,
	domain.JobTypeFreelance,
}

const digits = "0123456789"

func randomChineseName(rnd *rand.Rand) string {
	surname := commonSurnames[rnd.Intn(len(commonSurnames))]
	nameLength := rnd.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rnd.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// emailFromChineseName 用姓名的拼音加上随机数字作为邮箱的用户名
func emailFromChineseName(name, domainName string, rnd *rand.Rand) string {
	local := strings.Join(pinyin.LazyConvert(name, nil), "")

	digitsLength := rnd.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		local += string(digits[rnd.Intn(len(digits))])
	}

	return local + "@" + domainName
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}

// randomSubset 用 Fisher-Yates 洗牌算法生成一个非空的随机子集
func randomSubset[T any](rnd *rand.Rand, items []T) []T {
	c := append([]T{}, items...)
	rnd.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
	return c[:rnd.Intn(len(c))+1]
}

func randomJobInput(rnd *rand.Rand, company string, now time.Time) service.JobInput {
	category := pick(rnd, categories)
	title := pick(rnd, titles[category])

	low := float64(rnd.Intn(20)+5) * 1000
	high := low + float64(rnd.Intn(20)+1)*1000

	in := service.JobInput{
		Title:       title,
		Description: fmt.Sprintf("%s 正在招聘 %s，欢迎投递。", company, title),
		Company:     company,
		Location:    pick(rnd, cities),
		Type:        pick(rnd, jobTypes),
		Category:    category,
		Salary:      domain.Salary{Min: &low, Max: &high, Currency: "CNY"},
		Requirements: domain.Requirements{
			Experience: fmt.Sprintf("%d+ years", rnd.Intn(6)),
			Skills:     randomSubset(rnd, skills),
		},
		Benefits: randomSubset(rnd, []string{"五险一金", "弹性工作", "年度体检", "带薪年假", "股票期权"}),
		Status:   domain.JobStatusActive,
	}

	// 大约三分之一的职位设置截止时间
	if rnd.Intn(3) == 0 {
		deadline := now.AddDate(0, 0, rnd.Intn(60)+1)
		in.ApplicationDeadline = &deadline
	}

	return in
}
