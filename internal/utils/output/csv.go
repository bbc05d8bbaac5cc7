package output

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/medialoom/loom/pkg/models"
)

// SaveCSV writes the format table of a resolved result to a CSV file. Image
// posts export the image list instead.
func SaveCSV(res *models.MediaResult, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if res.IsImagePost {
		if err := writer.Write([]string{"index", "url", "width", "height"}); err != nil {
			return err
		}
		for i, img := range res.Images {
			row := []string{
				strconv.Itoa(i + 1),
				img.URL,
				strconv.Itoa(img.Width),
				strconv.Itoa(img.Height),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writer.Write([]string{"format_id", "ext", "quality", "filesize", "video_codec", "audio_codec", "url"}); err != nil {
		return err
	}
	for _, f := range res.Formats {
		row := []string{
			f.FormatID,
			f.Ext,
			f.Quality,
			strconv.FormatInt(f.Filesize, 10),
			f.VideoCodec,
			f.AudioCodec,
			f.URL,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}
