package services

import "gorm.io/gorm"

// Paginate 分页查询作用域，page 从 1 开始
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// newestFirst 列表默认按 id 倒序
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("id DESC")
}

// byPosition 问题和选项按位置排序
func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}
