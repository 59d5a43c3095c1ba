package pkg

import (
	"os"

	"github.com/spf13/afero"
)

// CheckFileExist 检查文件是否存在
func CheckFileExist(fs afero.Fs, filePath string) (bool, error) {
	_, err := fs.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
